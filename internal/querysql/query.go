package querysql

import (
	"fmt"
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/schema"
)

// Order is one ORDER BY entry.
type Order struct {
	Column    Column
	Direction queryir.Direction
	Nulls     queryir.Nulls
}

func (o Order) String() string {
	s := o.Column.String() + " " + string(o.Direction)
	if o.Nulls != queryir.NullsDefault {
		s += " NULLS " + string(o.Nulls)
	}
	return s
}

// SelectQuery records engine instructions for one SQL SELECT and renders
// them with squirrel. It implements Query.
type SelectQuery struct {
	dialect  Dialect
	entity   *schema.Entity
	alias    string
	aliases  map[string]bool
	joins    []Join
	where    []Predicate
	orders   []Order
	distinct []Column
	limit    *uint64
	offset   *uint64
}

var _ Query = (*SelectQuery)(nil)

// NewSelectQuery starts a query selecting every field of entity through
// alias.
func NewSelectQuery(d Dialect, entity *schema.Entity, alias string) *SelectQuery {
	return &SelectQuery{
		dialect: d,
		entity:  entity,
		alias:   alias,
		aliases: map[string]bool{alias: true},
	}
}

func (q *SelectQuery) Alias() string { return q.alias }

func (q *SelectQuery) HasAlias(alias string) bool { return q.aliases[alias] }

func (q *SelectQuery) Join(j Join) {
	q.aliases[j.Alias] = true
	q.joins = append(q.joins, j)
}

func (q *SelectQuery) Where(p Predicate) { q.where = append(q.where, p) }

func (q *SelectQuery) OrderBy(o Order) { q.orders = append(q.orders, o) }

func (q *SelectQuery) DistinctOn(cols []Column) {
	q.distinct = append([]Column(nil), cols...)
}

func (q *SelectQuery) Limit(n uint64) { q.limit = &n }

func (q *SelectQuery) Offset(n uint64) { q.offset = &n }

// Dialect returns the rendering dialect.
func (q *SelectQuery) Dialect() Dialect { return q.dialect }

// Entity returns the root entity.
func (q *SelectQuery) Entity() *schema.Entity { return q.entity }

// Joins returns the recorded join instructions in order.
func (q *SelectQuery) Joins() []Join { return q.joins }

// Predicates returns the recorded WHERE predicates in order.
func (q *SelectQuery) Predicates() []Predicate { return q.where }

// Orders returns the recorded ORDER BY entries in order.
func (q *SelectQuery) Orders() []Order { return q.orders }

// Distinct returns the distinct-column restriction, if any.
func (q *SelectQuery) Distinct() []Column { return q.distinct }

// LimitValue returns the limit and whether one is set.
func (q *SelectQuery) LimitValue() (uint64, bool) {
	if q.limit == nil {
		return 0, false
	}
	return *q.limit, true
}

// OffsetValue returns the offset and whether one is set.
func (q *SelectQuery) OffsetValue() (uint64, bool) {
	if q.offset == nil {
		return 0, false
	}
	return *q.offset, true
}

// Params returns every bound parameter in rendering order.
func (q *SelectQuery) Params() []Param {
	var out []Param
	for _, p := range q.where {
		out = append(out, Params(p)...)
	}
	return out
}

// SelectColumns returns the selected columns, one per entity field, in field
// declaration order.
func (q *SelectQuery) SelectColumns() []string {
	cols := make([]string, len(q.entity.Fields))
	for i, f := range q.entity.Fields {
		cols[i] = Column{Alias: q.alias, Name: f.Column}.String()
	}
	return cols
}

// ToSQL renders the fetch statement with positional parameters.
func (q *SelectQuery) ToSQL() (string, []any, error) {
	return q.fetchBuilder(renderer{dialect: q.dialect}).ToSql()
}

// ToCountSQL renders COUNT(*) over the same joins and predicates. Order,
// distinct restriction, limit and offset are not applied.
func (q *SelectQuery) ToCountSQL() (string, []any, error) {
	return q.baseBuilder(renderer{dialect: q.dialect}, "COUNT(*)").ToSql()
}

// Explain renders the fetch statement with named parameters (:p1, :p2, ...)
// instead of placeholders. The output is stable and used in golden files.
func (q *SelectQuery) Explain() string {
	s, _, err := q.fetchBuilder(renderer{dialect: q.dialect, named: true}).
		PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return fmt.Sprintf("<invalid query: %v>", err)
	}
	return s
}

func (q *SelectQuery) baseBuilder(r renderer, cols ...string) sq.SelectBuilder {
	b := sq.StatementBuilder.
		PlaceholderFormat(q.dialect.Placeholders()).
		Select(cols...).
		From(QuoteIdent(q.entity.Table) + " AS " + QuoteIdent(q.alias))

	for _, j := range q.joins {
		b = b.LeftJoin(j.clause())
	}
	for _, p := range q.where {
		b = b.Where(r.sqlizer(p))
	}
	return b
}

func (q *SelectQuery) fetchBuilder(r renderer) sq.SelectBuilder {
	b := q.baseBuilder(r, q.SelectColumns()...)

	if len(q.distinct) > 0 {
		cols := make([]string, len(q.distinct))
		for i, c := range q.distinct {
			cols[i] = c.String()
		}
		if q.dialect == Postgres {
			b = b.Options("DISTINCT ON (" + strings.Join(cols, ", ") + ")")
		} else {
			b = b.GroupBy(cols...)
		}
	}

	if len(q.orders) > 0 {
		orders := make([]string, len(q.orders))
		for i, o := range q.orders {
			orders[i] = o.String()
		}
		b = b.OrderBy(orders...)
	}

	if q.limit != nil {
		b = b.Limit(*q.limit)
	} else if q.offset != nil && q.dialect == SQLite {
		// SQLite rejects OFFSET without LIMIT.
		b = b.Limit(math.MaxInt64)
	}
	if q.offset != nil {
		b = b.Offset(*q.offset)
	}
	return b
}

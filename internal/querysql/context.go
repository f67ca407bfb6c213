package querysql

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/catalogql/internal/schema"
)

// IDGenerator produces per-call query ids used for log correlation.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 query ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// QueryContext is the call-scoped state of one compilation: the join
// registry, parameter allocator, and the accumulated predicates, order
// entries and distinct columns. It is never shared across calls.
type QueryContext struct {
	ID       string
	Registry *schema.Registry
	Entity   *schema.Entity
	Query    Query
	Joins    *JoinRegistry

	predicates []Predicate
	orders     []Order
	distinct   []Column
	limit      *uint64
	offset     *uint64
	params     int
}

// NewQueryContext opens a context over q, whose base alias reads entity.
func NewQueryContext(id string, registry *schema.Registry, entity *schema.Entity, q Query) *QueryContext {
	return &QueryContext{
		ID:       id,
		Registry: registry,
		Entity:   entity,
		Query:    q,
		Joins:    NewJoinRegistry(registry, q),
	}
}

// Alias is the base alias of the context.
func (c *QueryContext) Alias() string {
	return c.Query.Alias()
}

// Bind allocates a fresh parameter name for value.
func (c *QueryContext) Bind(value any) Param {
	c.params++
	return Param{Name: fmt.Sprintf("p%d", c.params), Value: value}
}

// AddPredicate appends a predicate to the WHERE list.
func (c *QueryContext) AddPredicate(p Predicate) {
	c.predicates = append(c.predicates, p)
}

// AddOrder appends an order entry.
func (c *QueryContext) AddOrder(o Order) {
	c.orders = append(c.orders, o)
}

// Predicates returns the accumulated predicates.
func (c *QueryContext) Predicates() []Predicate { return c.predicates }

// Orders returns the accumulated order entries.
func (c *QueryContext) Orders() []Order { return c.orders }

// Distinct returns the accumulated distinct columns.
func (c *QueryContext) Distinct() []Column { return c.distinct }

// hasOrder reports whether col is already ordered on.
func (c *QueryContext) hasOrder(col Column) bool {
	for _, o := range c.orders {
		if o.Column == col {
			return true
		}
	}
	return false
}

// baseKeyColumns returns the base entity's primary-key columns.
func (c *QueryContext) baseKeyColumns() []Column {
	fields := c.Entity.PrimaryKeyFields()
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{Alias: c.Alias(), Name: f.Column}
	}
	return cols
}

// flush writes accumulated state to the backend query. Joins were already
// emitted by the registry.
func (c *QueryContext) flush(withDistinct bool) {
	for _, p := range c.predicates {
		c.Query.Where(p)
	}
	for _, o := range c.orders {
		c.Query.OrderBy(o)
	}
	if withDistinct && len(c.distinct) > 0 {
		c.Query.DistinctOn(c.distinct)
	}
	if c.limit != nil {
		c.Query.Limit(*c.limit)
	}
	if c.offset != nil {
		c.Query.Offset(*c.offset)
	}
}

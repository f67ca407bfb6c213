package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/catalogql/internal/queryir"
)

// Column is a column qualified by the alias it is read through.
type Column struct {
	Alias string
	Name  string
}

func (c Column) String() string {
	return QuoteIdent(c.Alias) + "." + QuoteIdent(c.Name)
}

// Param is a named bound parameter. Names are unique within one compile.
type Param struct {
	Name  string
	Value any
}

// Predicate is a compiled boolean clause.
//
// This is a sealed interface - only types in this package implement it.
// String renders the named-parameter form, e.g. "movie"."year" >= :p1.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
	String() string
}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpNeq CompareOp = "!="
	OpGt  CompareOp = ">"
	OpGte CompareOp = ">="
	OpLt  CompareOp = "<"
	OpLte CompareOp = "<="
)

// Compare is column <op> :param.
type Compare struct {
	Column Column
	Op     CompareOp
	Param  Param
}

// NullCheck is column IS [NOT] NULL. It binds no parameter.
type NullCheck struct {
	Column Column
	Negate bool
}

// Like is a substring match. Fold makes it case-insensitive.
type Like struct {
	Column Column
	Negate bool
	Fold   bool
	Param  Param
}

// In is column [NOT] IN (...). Param.Value is a non-empty []any.
type In struct {
	Column Column
	Negate bool
	Param  Param
}

// Between is column [NOT] BETWEEN :start AND :end.
type Between struct {
	Column Column
	Negate bool
	Start  Param
	End    Param
}

// Junction combines children with AND or OR and is parenthesized as a unit.
type Junction struct {
	Conj     queryir.Conjunction
	Children []Predicate
}

// Const is a constant truth value.
type Const struct {
	Value bool
}

func (Compare) predicateNode()   {}
func (NullCheck) predicateNode() {}
func (Like) predicateNode()      {}
func (In) predicateNode()        {}
func (Between) predicateNode()   {}
func (Junction) predicateNode()  {}
func (Const) predicateNode()     {}

func (p Compare) String() string   { return namedString(p) }
func (p NullCheck) String() string { return namedString(p) }
func (p Like) String() string      { return namedString(p) }
func (p In) String() string        { return namedString(p) }
func (p Between) String() string   { return namedString(p) }
func (p Junction) String() string  { return namedString(p) }
func (p Const) String() string     { return namedString(p) }

// Params returns the parameters bound by p in rendering order.
func Params(p Predicate) []Param {
	var out []Param
	collectParams(p, &out)
	return out
}

func collectParams(p Predicate, out *[]Param) {
	switch pred := p.(type) {
	case Compare:
		*out = append(*out, pred.Param)
	case Like:
		*out = append(*out, pred.Param)
	case In:
		*out = append(*out, pred.Param)
	case Between:
		*out = append(*out, pred.Start, pred.End)
	case Junction:
		for _, child := range pred.Children {
			collectParams(child, out)
		}
	}
}

func namedString(p Predicate) string {
	s, _, err := renderer{dialect: Postgres, named: true}.sqlizer(p).ToSql()
	if err != nil {
		return fmt.Sprintf("<invalid predicate: %v>", err)
	}
	return s
}

// renderer turns predicates into squirrel expressions. Positional mode binds
// values behind ? placeholders (rewritten per dialect by squirrel); named
// mode writes :name markers and binds nothing.
type renderer struct {
	dialect Dialect
	named   bool
}

func (r renderer) param(p Param) (string, []any) {
	if r.named {
		return ":" + p.Name, nil
	}
	return "?", []any{p.Value}
}

func (r renderer) list(p Param) (string, []any) {
	if r.named {
		return "(:..." + p.Name + ")", nil
	}
	values, _ := p.Value.([]any)
	marks := make([]string, len(values))
	for i := range values {
		marks[i] = "?"
	}
	return "(" + strings.Join(marks, ", ") + ")", values
}

func (r renderer) sqlizer(p Predicate) sq.Sqlizer {
	not := func(negate bool) string {
		if negate {
			return "NOT "
		}
		return ""
	}

	switch pred := p.(type) {
	case Compare:
		mark, args := r.param(pred.Param)
		return sq.Expr(fmt.Sprintf("%s %s %s", pred.Column, pred.Op, mark), args...)

	case NullCheck:
		return sq.Expr(fmt.Sprintf("%s IS %sNULL", pred.Column, not(pred.Negate)))

	case Like:
		mark, args := r.param(pred.Param)
		switch {
		case !pred.Fold:
			return sq.Expr(fmt.Sprintf("%s %sLIKE %s", pred.Column, not(pred.Negate), mark), args...)
		case r.dialect == Postgres:
			return sq.Expr(fmt.Sprintf("%s %sILIKE %s", pred.Column, not(pred.Negate), mark), args...)
		default:
			return sq.Expr(fmt.Sprintf("LOWER(%s) %sLIKE LOWER(%s)", pred.Column, not(pred.Negate), mark), args...)
		}

	case In:
		marks, args := r.list(pred.Param)
		return sq.Expr(fmt.Sprintf("%s %sIN %s", pred.Column, not(pred.Negate), marks), args...)

	case Between:
		start, startArgs := r.param(pred.Start)
		end, endArgs := r.param(pred.End)
		return sq.Expr(fmt.Sprintf("%s %sBETWEEN %s AND %s", pred.Column, not(pred.Negate), start, end),
			append(startArgs, endArgs...)...)

	case Junction:
		parts := make([]sq.Sqlizer, len(pred.Children))
		for i, child := range pred.Children {
			parts[i] = r.sqlizer(child)
		}
		if pred.Conj == queryir.Or {
			return sq.Or(parts)
		}
		return sq.And(parts)

	case Const:
		if pred.Value {
			return sq.Expr("1=1")
		}
		return sq.Expr("1=0")

	default:
		return sq.Expr(fmt.Sprintf("/* unsupported predicate %T */ 1=0", p))
	}
}

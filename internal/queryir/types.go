package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/catalogql/internal/ir"
)

// Filter is a node of a filter tree.
//
// This is a sealed interface - only Leaf, Group and Relation implement it.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// Operator is a comparison operator key inside a leaf.
type Operator string

const (
	OpEq     Operator = "eq"
	OpNeq    Operator = "neq"
	OpGt     Operator = "gt"
	OpGte    Operator = "gte"
	OpLt     Operator = "lt"
	OpLte    Operator = "lte"
	OpLike   Operator = "like"
	OpNlike  Operator = "nlike"
	OpIlike  Operator = "ilike"
	OpNilike Operator = "nilike"
	OpIn     Operator = "in"
	OpNin    Operator = "nin"
	OpBtwn   Operator = "btwn"
	OpNbtwn  Operator = "nbtwn"
)

// Operators lists every supported operator in documentation order.
var Operators = []Operator{
	OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte,
	OpLike, OpNlike, OpIlike, OpNilike,
	OpIn, OpNin, OpBtwn, OpNbtwn,
}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	for _, op := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// IsLike reports whether o is one of the substring operators.
func (o Operator) IsLike() bool {
	return o == OpLike || o == OpNlike || o == OpIlike || o == OpNilike
}

// IsList reports whether o takes a list operand.
func (o Operator) IsList() bool {
	return o == OpIn || o == OpNin
}

// IsRange reports whether o takes a {start, end} operand.
func (o Operator) IsRange() bool {
	return o == OpBtwn || o == OpNbtwn
}

// OpEntry is one operator and its operand.
type OpEntry struct {
	Op      Operator
	Operand ir.IRValue
}

// Leaf filters a scalar field. Ops keep input order and combine with AND.
// A leaf with no ops matches every row.
type Leaf struct {
	Field string
	Ops   []OpEntry
}

func (Leaf) filterNode() {}

// Conjunction is the boolean connective of a Group.
type Conjunction string

const (
	And Conjunction = "and"
	Or  Conjunction = "or"
)

// Group combines child filters with a connective. An empty And is true; an
// empty Or is false.
type Group struct {
	Conj     Conjunction
	Children []Filter
}

func (Group) filterNode() {}

// Relation applies a nested filter to the target of a relation field.
type Relation struct {
	Field  string
	Nested Filter
}

func (Relation) filterNode() {}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection returns Asc when s is "ASC" in any case and Desc for
// anything else, including the empty string.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// Nulls is the null placement of a sort key. The zero value leaves the
// placement to the backend.
type Nulls string

const (
	NullsDefault Nulls = ""
	NullsFirst   Nulls = "FIRST"
	NullsLast    Nulls = "LAST"
)

// ParseNulls accepts "FIRST", "LAST", "NULLS FIRST" and "NULLS LAST" in any
// case. The empty string is NullsDefault.
func ParseNulls(s string) (Nulls, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "NULLS ")
	switch v {
	case "":
		return NullsDefault, nil
	case "FIRST":
		return NullsFirst, nil
	case "LAST":
		return NullsLast, nil
	default:
		return NullsDefault, fmt.Errorf("unknown null placement %q", s)
	}
}

// SortLeaf orders by a scalar field.
type SortLeaf struct {
	Direction Direction
	Nulls     Nulls
}

// SortEntry is one key of a sort tree: either a leaf on a scalar field or a
// nested sort across a relation. Exactly one of Leaf and Nested is set.
type SortEntry struct {
	Field  string
	Leaf   *SortLeaf
	Nested Sort
}

// Sort is an ordered sort tree. A nil or empty Sort still gets the primary
// key tie-break when compiled.
type Sort []SortEntry

// Pagination is a pagination request.
//
// This is a sealed interface - only Offset and Cursor implement it.
type Pagination interface {
	paginationNode() // Marker method - seals interface to this package
}

// Offset pages by skip count and page size.
type Offset struct {
	Limit  int64
	Offset int64
}

func (Offset) paginationNode() {}

// Cursor pages forward with First/After or backward with Last/Before.
// Cursors are the literal primary-key value rendered as text.
type Cursor struct {
	First  *int64
	After  *string
	Last   *int64
	Before *string
}

func (Cursor) paginationNode() {}

// Forward reports whether the cursor pages forward.
func (c Cursor) Forward() bool {
	return c.First != nil
}

// Request bundles everything needed to fetch one page of an entity.
type Request struct {
	Entity     string
	Filter     Filter     // nil = no filter
	Sort       Sort       // nil = primary key only
	Pagination Pagination // nil = unpaginated
}

// Int64 returns a pointer to n. Convenience for building Cursor literals.
func Int64(n int64) *int64 { return &n }

// String returns a pointer to s. Convenience for building Cursor literals.
func String(s string) *string { return &s }

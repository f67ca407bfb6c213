package queryir

import (
	"fmt"

	"github.com/roach88/catalogql/internal/ir"
)

// IssueKind classifies a structural problem in a filter or sort tree.
type IssueKind string

const (
	IssueOperator IssueKind = "operator" // unknown operator or operator misuse
	IssueOperand  IssueKind = "operand"  // operand has the wrong shape
	IssueShape    IssueKind = "shape"    // malformed node (empty names, nil children)
)

// Issue is one structural problem found by Validate.
type Issue struct {
	Kind    IssueKind
	Path    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// ValidationResult lists the structural issues of a filter and sort tree.
//
// Validate needs no schema: it checks operand shapes only. Field existence
// and operand types are checked by the compiler against entity metadata.
type ValidationResult struct {
	// Valid is true when Issues is empty.
	Valid bool

	Issues []Issue
}

// Validate checks operand shapes in a filter tree and entry shapes in a sort
// tree. Either may be nil.
//
// Rules:
//  1. eq/neq take a scalar or null
//  2. gt/gte/lt/lte and the like family take a non-null scalar
//  3. in/nin take a list of non-null scalars (possibly empty)
//  4. btwn/nbtwn take a range with non-null scalar bounds
//  5. sort entries set exactly one of Leaf and Nested
//
// Validate is a pure function with no side effects.
func Validate(filter Filter, sort Sort) ValidationResult {
	v := &validator{}
	if filter != nil {
		v.validateFilter("", filter)
	}
	v.validateSort("", sort)

	return ValidationResult{
		Valid:  len(v.issues) == 0,
		Issues: v.issues,
	}
}

// validator accumulates issues during traversal.
type validator struct {
	issues []Issue
}

func (v *validator) add(kind IssueKind, path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validateFilter(path string, f Filter) {
	switch node := f.(type) {
	case nil:
		v.add(IssueShape, path, "nil filter node")
	case Leaf:
		v.validateLeaf(join(path, node.Field), node)
	case *Leaf:
		v.validateLeaf(join(path, node.Field), *node)
	case Group:
		v.validateGroup(path, node)
	case *Group:
		v.validateGroup(path, *node)
	case Relation:
		v.validateRelation(path, node)
	case *Relation:
		v.validateRelation(path, *node)
	default:
		v.add(IssueShape, path, "unknown filter node %T", f)
	}
}

func (v *validator) validateGroup(path string, g Group) {
	if g.Conj != And && g.Conj != Or {
		v.add(IssueShape, path, "unknown conjunction %q", g.Conj)
	}
	for i, child := range g.Children {
		v.validateFilter(fmt.Sprintf("%s[%d]", join(path, string(g.Conj)), i), child)
	}
}

func (v *validator) validateRelation(path string, r Relation) {
	if r.Field == "" {
		v.add(IssueShape, path, "relation filter without a field name")
		return
	}
	v.validateFilter(join(path, r.Field), r.Nested)
}

func (v *validator) validateLeaf(path string, leaf Leaf) {
	if leaf.Field == "" {
		v.add(IssueShape, path, "leaf filter without a field name")
	}
	for _, e := range leaf.Ops {
		v.validateOperand(join(path, string(e.Op)), e.Op, e.Operand)
	}
}

func (v *validator) validateOperand(path string, op Operator, operand ir.IRValue) {
	switch {
	case !op.Valid():
		v.add(IssueOperator, path, "unknown operator %q", op)

	case op == OpEq || op == OpNeq:
		if !ir.IsNull(operand) && !isScalar(operand) {
			v.add(IssueOperand, path, "expected a scalar or null, got %s", ir.Kind(operand))
		}

	case op.IsList():
		list, ok := operand.(ir.IRList)
		if !ok {
			v.add(IssueOperand, path, "expected a list, got %s", ir.Kind(operand))
			return
		}
		for i, elem := range list {
			if !isScalar(elem) {
				v.add(IssueOperand, fmt.Sprintf("%s[%d]", path, i), "expected a non-null scalar, got %s", ir.Kind(elem))
			}
		}

	case op.IsRange():
		rng, ok := operand.(ir.IRRange)
		if !ok {
			v.add(IssueOperand, path, "expected {start, end}, got %s", ir.Kind(operand))
			return
		}
		if !isScalar(rng.Start) {
			v.add(IssueOperand, join(path, "start"), "expected a non-null scalar, got %s", ir.Kind(rng.Start))
		}
		if !isScalar(rng.End) {
			v.add(IssueOperand, join(path, "end"), "expected a non-null scalar, got %s", ir.Kind(rng.End))
		}

	case op.IsLike():
		if _, ok := operand.(ir.IRString); !ok {
			v.add(IssueOperand, path, "expected a string, got %s", ir.Kind(operand))
		}

	default:
		if ir.IsNull(operand) {
			v.add(IssueOperand, path, "null is only allowed with eq and neq")
		} else if !isScalar(operand) {
			v.add(IssueOperand, path, "expected a scalar, got %s", ir.Kind(operand))
		}
	}
}

func (v *validator) validateSort(path string, s Sort) {
	for _, e := range s {
		p := join(path, e.Field)
		if e.Field == "" {
			v.add(IssueShape, p, "sort entry without a field name")
		}
		switch {
		case e.Leaf != nil && e.Nested != nil:
			v.add(IssueShape, p, "sort entry has both a direction and a nested sort")
		case e.Leaf == nil && e.Nested == nil:
			v.add(IssueShape, p, "sort entry has neither a direction nor a nested sort")
		case e.Nested != nil:
			v.validateSort(p, e.Nested)
		}
	}
}

func isScalar(v ir.IRValue) bool {
	switch v.(type) {
	case ir.IRString, ir.IRInt, ir.IRFloat, ir.IRBool:
		return true
	default:
		return false
	}
}

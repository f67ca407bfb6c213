package querysql

import (
	"fmt"

	"github.com/roach88/catalogql/internal/ir"
	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/schema"
)

// scope is the position of a recursive compile: the entity read through
// alias, reached from the root by path.
type scope struct {
	entity *schema.Entity
	alias  string
	path   string // relation path, "" at the root
	where  string // dotted request location for errors
}

func (s scope) at(key string) string {
	if s.where == "" {
		return key
	}
	return s.where + "." + key
}

// filterCompiler compiles filter trees into predicates bound in one context.
type filterCompiler struct {
	ctx *QueryContext
}

// compile returns the predicate for node under s.
func (fc *filterCompiler) compile(node queryir.Filter, s scope) (Predicate, error) {
	switch n := node.(type) {
	case queryir.Leaf:
		return fc.compileLeaf(n, s)
	case *queryir.Leaf:
		return fc.compileLeaf(*n, s)
	case queryir.Group:
		return fc.compileGroup(n, s)
	case *queryir.Group:
		return fc.compileGroup(*n, s)
	case queryir.Relation:
		return fc.compileRelation(n, s)
	case *queryir.Relation:
		return fc.compileRelation(*n, s)
	default:
		return nil, validationErr(ErrCodeOperand, s.where, "unsupported filter node %T", node)
	}
}

// compileGroup combines children with the group's connective. Empty groups
// fold to constants: and → TRUE, or → FALSE.
func (fc *filterCompiler) compileGroup(g queryir.Group, s scope) (Predicate, error) {
	if g.Conj != queryir.And && g.Conj != queryir.Or {
		return nil, validationErr(ErrCodeOperator, s.where, "unknown conjunction %q", g.Conj)
	}
	if len(g.Children) == 0 {
		return Const{Value: g.Conj == queryir.And}, nil
	}

	children := make([]Predicate, 0, len(g.Children))
	for i, child := range g.Children {
		cs := s
		cs.where = fmt.Sprintf("%s[%d]", s.at(string(g.Conj)), i)
		p, err := fc.compile(child, cs)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return Junction{Conj: g.Conj, Children: children}, nil
}

func (fc *filterCompiler) compileRelation(r queryir.Relation, s scope) (Predicate, error) {
	where := s.at(r.Field)
	rel, ok := s.entity.Relation(r.Field)
	if !ok {
		if _, isField := s.entity.Field(r.Field); isField {
			return nil, validationErr(ErrCodeRelation, where, "%s.%s is a field, not a relation; use an operator object", s.entity.Name, r.Field)
		}
		return nil, validationErr(ErrCodeUnknownField, where, "unknown field %q on %s", r.Field, s.entity.Name)
	}

	ja := fc.ctx.Joins.Ensure(s.path, s.alias, s.entity, rel)
	return fc.compile(r.Nested, scope{
		entity: ja.Entity,
		alias:  ja.Alias,
		path:   ja.Path,
		where:  where,
	})
}

// compileLeaf turns each (operator, operand) pair into a clause; several
// pairs on one field combine with AND.
func (fc *filterCompiler) compileLeaf(leaf queryir.Leaf, s scope) (Predicate, error) {
	where := s.at(leaf.Field)
	field, ok := s.entity.Field(leaf.Field)
	if !ok {
		if _, isRel := s.entity.Relation(leaf.Field); isRel {
			if len(leaf.Ops) == 0 {
				return Const{Value: true}, nil
			}
			return nil, validationErr(ErrCodeRelation, where, "%s.%s is a relation; filter it with a nested object", s.entity.Name, leaf.Field)
		}
		return nil, validationErr(ErrCodeUnknownField, where, "unknown field %q on %s", leaf.Field, s.entity.Name)
	}

	col := Column{Alias: s.alias, Name: field.Column}
	clauses := make([]Predicate, 0, len(leaf.Ops))
	for _, e := range leaf.Ops {
		p, err := fc.compileOp(col, field, e, where+"."+string(e.Op))
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, p)
	}

	switch len(clauses) {
	case 0:
		return Const{Value: true}, nil
	case 1:
		return clauses[0], nil
	default:
		return Junction{Conj: queryir.And, Children: clauses}, nil
	}
}

var compareOps = map[queryir.Operator]CompareOp{
	queryir.OpEq:  OpEq,
	queryir.OpNeq: OpNeq,
	queryir.OpGt:  OpGt,
	queryir.OpGte: OpGte,
	queryir.OpLt:  OpLt,
	queryir.OpLte: OpLte,
}

func (fc *filterCompiler) compileOp(col Column, field schema.Field, e queryir.OpEntry, where string) (Predicate, error) {
	op := e.Op
	if !op.Valid() {
		return nil, validationErr(ErrCodeOperator, where, "unknown operator %q", op)
	}

	// eq/neq null never binds a parameter.
	if ir.IsNull(e.Operand) {
		switch op {
		case queryir.OpEq:
			return NullCheck{Column: col}, nil
		case queryir.OpNeq:
			return NullCheck{Column: col, Negate: true}, nil
		default:
			return nil, validationErr(ErrCodeOperand, where, "null is only allowed with eq and neq")
		}
	}

	switch {
	case op.IsLike():
		if field.Type != schema.TypeString {
			return nil, validationErr(ErrCodeOperator, where, "%s requires a string field, %s is %s", op, field.Name, field.Type)
		}
		s, ok := e.Operand.(ir.IRString)
		if !ok {
			return nil, validationErr(ErrCodeOperand, where, "expected a string, got %s", ir.Kind(e.Operand))
		}
		return Like{
			Column: col,
			Negate: op == queryir.OpNlike || op == queryir.OpNilike,
			Fold:   op == queryir.OpIlike || op == queryir.OpNilike,
			Param:  fc.ctx.Bind("%" + string(s) + "%"),
		}, nil

	case op.IsList():
		list, ok := e.Operand.(ir.IRList)
		if !ok {
			return nil, validationErr(ErrCodeOperand, where, "expected a list, got %s", ir.Kind(e.Operand))
		}
		negate := op == queryir.OpNin
		if len(list) == 0 {
			// Nothing is in the empty set.
			return Const{Value: negate}, nil
		}
		values := make([]any, len(list))
		for i, elem := range list {
			if ir.IsNull(elem) {
				return nil, validationErr(ErrCodeOperand, fmt.Sprintf("%s[%d]", where, i), "null is not allowed in %s", op)
			}
			v, err := fc.operand(field, elem, fmt.Sprintf("%s[%d]", where, i))
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return In{Column: col, Negate: negate, Param: fc.ctx.Bind(values)}, nil

	case op.IsRange():
		rng, ok := e.Operand.(ir.IRRange)
		if !ok {
			return nil, validationErr(ErrCodeOperand, where, "expected {start, end}, got %s", ir.Kind(e.Operand))
		}
		if ir.IsNull(rng.Start) || ir.IsNull(rng.End) {
			return nil, validationErr(ErrCodeOperand, where, "range bounds cannot be null")
		}
		start, err := fc.operand(field, rng.Start, where+".start")
		if err != nil {
			return nil, err
		}
		end, err := fc.operand(field, rng.End, where+".end")
		if err != nil {
			return nil, err
		}
		return Between{
			Column: col,
			Negate: op == queryir.OpNbtwn,
			Start:  fc.ctx.Bind(start),
			End:    fc.ctx.Bind(end),
		}, nil

	default:
		v, err := fc.operand(field, e.Operand, where)
		if err != nil {
			return nil, err
		}
		return Compare{Column: col, Op: compareOps[op], Param: fc.ctx.Bind(v)}, nil
	}
}

func (fc *filterCompiler) operand(field schema.Field, v ir.IRValue, where string) (any, error) {
	switch v.(type) {
	case ir.IRList, ir.IRObject, ir.IRRange:
		return nil, validationErr(ErrCodeOperand, where, "expected a scalar, got %s", ir.Kind(v))
	}
	out, err := coerce(field.Type, v)
	if err != nil {
		return nil, validationErr(ErrCodeOperand, where, "%v", err)
	}
	return out, nil
}

package querysql

import (
	"github.com/roach88/catalogql/internal/queryir"
)

// sortCompiler appends order entries for a sort tree.
type sortCompiler struct {
	ctx *QueryContext
}

// compile appends one entry per sort leaf in traversal order, joining
// relations on the way.
func (sc *sortCompiler) compile(sort queryir.Sort, s scope) error {
	for _, e := range sort {
		where := s.at(e.Field)

		if e.Nested != nil || e.Leaf == nil {
			rel, ok := s.entity.Relation(e.Field)
			if !ok {
				if _, isField := s.entity.Field(e.Field); isField {
					return validationErr(ErrCodeRelation, where, "%s.%s is a field, not a relation; give it a direction", s.entity.Name, e.Field)
				}
				return validationErr(ErrCodeUnknownField, where, "unknown field %q on %s", e.Field, s.entity.Name)
			}
			if e.Leaf != nil {
				return validationErr(ErrCodeRelation, where, "sort entry has both a direction and a nested sort")
			}
			ja := sc.ctx.Joins.Ensure(s.path, s.alias, s.entity, rel)
			if err := sc.compile(e.Nested, scope{entity: ja.Entity, alias: ja.Alias, path: ja.Path, where: where}); err != nil {
				return err
			}
			continue
		}

		field, ok := s.entity.Field(e.Field)
		if !ok {
			if _, isRel := s.entity.Relation(e.Field); isRel {
				return validationErr(ErrCodeRelation, where, "%s.%s is a relation; sort it with a nested object", s.entity.Name, e.Field)
			}
			return validationErr(ErrCodeUnknownField, where, "unknown field %q on %s", e.Field, s.entity.Name)
		}

		dir := e.Leaf.Direction
		if dir != queryir.Asc {
			dir = queryir.Desc
		}
		col := Column{Alias: s.alias, Name: field.Column}
		if sc.ctx.hasOrder(col) {
			continue
		}
		sc.ctx.AddOrder(Order{Column: col, Direction: dir, Nulls: e.Leaf.Nulls})
	}
	return nil
}

// appendKeyTieBreak appends each base primary-key column not already
// ordered on, ascending.
func (sc *sortCompiler) appendKeyTieBreak() {
	for _, col := range sc.ctx.baseKeyColumns() {
		if !sc.ctx.hasOrder(col) {
			sc.ctx.AddOrder(Order{Column: col, Direction: queryir.Asc})
		}
	}
}

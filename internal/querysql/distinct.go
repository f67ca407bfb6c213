package querysql

import (
	"github.com/roach88/catalogql/internal/queryir"
)

// deriveDistinct collects the column of every sort leaf in traversal order,
// then the base primary-key columns, without duplicates. Relation paths are
// resolved through the same join registry the sort compiler used, so no new
// joins are emitted.
//
// The result is a prefix of the order list produced by sortCompiler followed
// by appendKeyTieBreak; checkPrefix asserts it.
func deriveDistinct(ctx *QueryContext, sort queryir.Sort, s scope) []Column {
	var cols []Column
	seen := make(map[Column]bool)
	add := func(c Column) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}

	var walk func(sort queryir.Sort, s scope)
	walk = func(sort queryir.Sort, s scope) {
		for _, e := range sort {
			if e.Leaf != nil {
				if f, ok := s.entity.Field(e.Field); ok {
					add(Column{Alias: s.alias, Name: f.Column})
				}
				continue
			}
			if rel, ok := s.entity.Relation(e.Field); ok {
				ja := ctx.Joins.Ensure(s.path, s.alias, s.entity, rel)
				walk(e.Nested, scope{entity: ja.Entity, alias: ja.Alias, path: ja.Path})
			}
		}
	}
	walk(sort, s)

	for _, c := range ctx.baseKeyColumns() {
		add(c)
	}
	return cols
}

// checkPrefix reports ErrDistinctPrefix unless distinct is an ordered
// prefix of the order columns.
func checkPrefix(distinct []Column, orders []Order) error {
	if len(distinct) > len(orders) {
		return ErrDistinctPrefix
	}
	for i, c := range distinct {
		if orders[i].Column != c {
			return ErrDistinctPrefix
		}
	}
	return nil
}

// promoteKey moves the single primary-key column to the front of both the
// order list and the distinct set, giving it direction dir.
func promoteKey(ctx *QueryContext, key Column, dir queryir.Direction) {
	orders := make([]Order, 0, len(ctx.orders)+1)
	orders = append(orders, Order{Column: key, Direction: dir})
	for _, o := range ctx.orders {
		if o.Column != key {
			orders = append(orders, o)
		}
	}
	ctx.orders = orders

	if len(ctx.distinct) > 0 {
		distinct := make([]Column, 0, len(ctx.distinct))
		distinct = append(distinct, key)
		for _, c := range ctx.distinct {
			if c != key {
				distinct = append(distinct, c)
			}
		}
		ctx.distinct = distinct
	}
}

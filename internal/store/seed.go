package store

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"gopkg.in/yaml.v3"

	"github.com/roach88/catalogql/internal/ir"
	"github.com/roach88/catalogql/internal/querysql"
	"github.com/roach88/catalogql/internal/schema"
)

// FixtureSet is one top-level fixture key: the rows for a table.
type FixtureSet struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// ParseFixtures decodes a fixture document against registry. Entity keys
// map field names to columns and coerce values to field types; any other
// key is a raw table whose row keys are column names.
func ParseFixtures(registry *schema.Registry, data []byte) ([]FixtureSet, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	doc, err := ir.FromYAML(&node)
	if err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if ir.IsNull(doc) {
		return nil, nil
	}
	root, ok := doc.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("parse fixtures: expected a mapping at top level, got %s", ir.Kind(doc))
	}

	sets := make([]FixtureSet, 0, root.Len())
	for _, key := range root.Keys {
		list, ok := root.Values[key].(ir.IRList)
		if !ok {
			return nil, fmt.Errorf("fixtures %s: expected a list of rows, got %s", key, ir.Kind(root.Values[key]))
		}

		var set FixtureSet
		if ent, ok := registry.Entity(key); ok {
			set, err = entityRows(ent, list)
		} else {
			set, err = tableRows(key, list)
		}
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func entityRows(ent *schema.Entity, list ir.IRList) (FixtureSet, error) {
	set := FixtureSet{Table: ent.Table}
	for _, f := range ent.Fields {
		set.Columns = append(set.Columns, f.Column)
	}

	for i, item := range list {
		obj, ok := item.(ir.IRObject)
		if !ok {
			return set, fmt.Errorf("fixtures %s[%d]: expected a mapping, got %s", ent.Name, i, ir.Kind(item))
		}
		for _, k := range obj.Keys {
			if _, ok := ent.Field(k); !ok {
				return set, fmt.Errorf("fixtures %s[%d]: unknown field %q", ent.Name, i, k)
			}
		}

		row := make([]any, len(ent.Fields))
		for j, f := range ent.Fields {
			v, _ := obj.Get(f.Name)
			coerced, err := querysql.Coerce(f.Type, v)
			if err != nil {
				return set, fmt.Errorf("fixtures %s[%d].%s: %w", ent.Name, i, f.Name, err)
			}
			row[j] = coerced
		}
		set.Rows = append(set.Rows, row)
	}
	return set, nil
}

func tableRows(table string, list ir.IRList) (FixtureSet, error) {
	set := FixtureSet{Table: table}
	for i, item := range list {
		obj, ok := item.(ir.IRObject)
		if !ok {
			return set, fmt.Errorf("fixtures %s[%d]: expected a mapping, got %s", table, i, ir.Kind(item))
		}
		if set.Columns == nil {
			set.Columns = append([]string(nil), obj.Keys...)
		}
		if obj.Len() != len(set.Columns) {
			return set, fmt.Errorf("fixtures %s[%d]: expected columns %v", table, i, set.Columns)
		}

		row := make([]any, len(set.Columns))
		for j, col := range set.Columns {
			v, ok := obj.Get(col)
			if !ok {
				return set, fmt.Errorf("fixtures %s[%d]: missing column %q", table, i, col)
			}
			row[j] = ir.Native(v)
		}
		set.Rows = append(set.Rows, row)
	}
	return set, nil
}

// Seed parses data with ParseFixtures and inserts every row in one
// transaction. It returns the number of rows inserted.
func (s *Store) Seed(ctx context.Context, registry *schema.Registry, data []byte) (int, error) {
	sets, err := ParseFixtures(registry, data)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, set := range sets {
		cols := make([]string, len(set.Columns))
		for i, c := range set.Columns {
			cols[i] = querysql.QuoteIdent(c)
		}

		for i, row := range set.Rows {
			query, args, err := sq.StatementBuilder.
				PlaceholderFormat(s.dialect.Placeholders()).
				Insert(querysql.QuoteIdent(set.Table)).
				Columns(cols...).
				Values(row...).
				ToSql()
			if err != nil {
				return inserted, fmt.Errorf("seed %s[%d]: %w", set.Table, i, err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return inserted, fmt.Errorf("seed %s[%d]: %w", set.Table, i, err)
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("seed: commit: %w", err)
	}
	slog.Info("fixtures seeded", "rows", inserted, "tables", len(sets))
	return inserted, nil
}

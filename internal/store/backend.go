package store

import (
	"context"
	"fmt"

	"github.com/roach88/catalogql/internal/querysql"
	"github.com/roach88/catalogql/internal/schema"
)

var _ querysql.Backend = (*Store)(nil)

// Open starts a SelectQuery in the store's dialect.
func (s *Store) Open(entity *schema.Entity, alias string) querysql.Query {
	return querysql.NewSelectQuery(s.dialect, entity, alias)
}

// Fetch runs q and returns rows keyed by field name, in result order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Fetch(ctx context.Context, q querysql.Query) ([]querysql.Row, error) {
	sel, err := selectQuery(q)
	if err != nil {
		return nil, err
	}

	query, args, err := sel.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("render query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sel.Entity().Table, err)
	}
	defer rows.Close()

	fields := sel.Entity().Fields
	out := []querysql.Row{}
	for rows.Next() {
		dest := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", sel.Entity().Table, err)
		}

		row := make(querysql.Row, len(fields))
		for i, f := range fields {
			v, err := normalize(f.Type, dest[i])
			if err != nil {
				return nil, fmt.Errorf("scan %s.%s: %w", sel.Entity().Name, f.Name, err)
			}
			row[f.Name] = v
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", sel.Entity().Table, err)
	}
	return out, nil
}

// Count runs q as COUNT(*).
func (s *Store) Count(ctx context.Context, q querysql.Query) (int64, error) {
	sel, err := selectQuery(q)
	if err != nil {
		return 0, err
	}

	query, args, err := sel.ToCountSQL()
	if err != nil {
		return 0, fmt.Errorf("render count: %w", err)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", sel.Entity().Table, err)
	}
	return n, nil
}

func selectQuery(q querysql.Query) (*querysql.SelectQuery, error) {
	sel, ok := q.(*querysql.SelectQuery)
	if !ok {
		return nil, fmt.Errorf("store cannot execute %T", q)
	}
	return sel, nil
}

package querysql

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/schema"
	"github.com/roach88/catalogql/internal/testutil"
)

// spyBackend builds real SelectQuery values and records every call.
type spyBackend struct {
	dialect Dialect
	rows    []Row
	total   int64
	err     error

	opened  atomic.Int32
	fetched atomic.Int32
	counted atomic.Int32
}

func (b *spyBackend) Open(entity *schema.Entity, alias string) Query {
	b.opened.Add(1)
	return NewSelectQuery(b.dialect, entity, alias)
}

func (b *spyBackend) Fetch(_ context.Context, _ Query) ([]Row, error) {
	b.fetched.Add(1)
	return b.rows, b.err
}

func (b *spyBackend) Count(_ context.Context, _ Query) (int64, error) {
	b.counted.Add(1)
	return b.total, b.err
}

func (b *spyBackend) calls() int32 {
	return b.opened.Load() + b.fetched.Load() + b.counted.Load()
}

// fixedIDs returns the same query id every time.
type fixedIDs string

func (f fixedIDs) Generate() string { return string(f) }

func dryEngine(d Dialect, opts ...EngineOption) *Engine {
	return New(testutil.Catalog(), DryRunBackend{Dialect: d}, opts...)
}

func compileSelect(t *testing.T, e *Engine, entity string, args Args) *SelectQuery {
	t.Helper()
	q, err := e.Compile(entity, args)
	require.NoError(t, err)
	sel, ok := q.(*SelectQuery)
	require.True(t, ok, "Compile returned %T", q)
	return sel
}

func mustFilter(t *testing.T, js string) queryir.Filter {
	t.Helper()
	f, err := queryir.DecodeFilterJSON([]byte(js))
	require.NoError(t, err)
	return f
}

func mustSort(t *testing.T, js string) queryir.Sort {
	t.Helper()
	s, err := queryir.DecodeSortJSON([]byte(js))
	require.NoError(t, err)
	return s
}

func mustPage(t *testing.T, js string) queryir.Pagination {
	t.Helper()
	p, err := queryir.DecodePaginationJSON([]byte(js))
	require.NoError(t, err)
	return p
}

func orderStrings(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.String()
	}
	return out
}

func joinAliases(joins []Join) []string {
	out := make([]string, len(joins))
	for i, j := range joins {
		out[i] = j.Alias
	}
	return out
}

func rowsWithIDs(ids ...int64) []Row {
	rows := make([]Row, len(ids))
	for i, id := range ids {
		rows[i] = Row{"id": id}
	}
	return rows
}

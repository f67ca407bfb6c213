package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogql/internal/testutil"
)

func TestParseFixtures_Catalog(t *testing.T) {
	sets, err := ParseFixtures(testutil.Catalog(), testutil.Fixtures)
	require.NoError(t, err)

	tables := make([]string, len(sets))
	for i, s := range sets {
		tables[i] = s.Table
	}
	assert.Equal(t, []string{"studio", "person", "genre", "movie", "movie_genre", "review"}, tables)

	movie := sets[3]
	assert.Equal(t, "released_at", movie.Columns[5])
	assert.Len(t, movie.Rows, 10)

	junction := sets[4]
	assert.Equal(t, []string{"movie_id", "genre_id"}, junction.Columns)
	assert.Equal(t, []any{int64(1), int64(1)}, junction.Rows[0])
}

func TestParseFixtures_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not a mapping", "- 1", "expected a mapping"},
		{"rows not a list", "Studio: 1", "expected a list of rows"},
		{"unknown field", "Studio:\n  - {id: 1, name: A, founded: 1990}", `unknown field "founded"`},
		{"bad type", "Studio:\n  - {id: one, name: A}", "Studio[0].id"},
		{"ragged table", "t:\n  - {a: 1, b: 2}\n  - {a: 1}", "expected columns"},
		{"duplicate key", "Studio:\n  - {id: 1, id: 2}", "duplicate key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures(testutil.Catalog(), []byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSeed_InsertsAllRows(t *testing.T) {
	s := createEmptyStore(t)
	ctx := context.Background()
	require.NoError(t, s.ExecScript(ctx, testutil.SQLiteDDL))

	n, err := s.Seed(ctx, testutil.Catalog(), testutil.Fixtures)
	require.NoError(t, err)
	assert.Equal(t, 3+6+4+10+15+6, n)

	var movies int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM movie").Scan(&movies))
	assert.Equal(t, 10, movies)
}

func TestSeed_RollsBackOnError(t *testing.T) {
	s := createEmptyStore(t)
	ctx := context.Background()
	require.NoError(t, s.ExecScript(ctx, testutil.SQLiteDDL))

	// Second row violates the primary key.
	doc := "Studio:\n  - {id: 1, name: A}\n  - {id: 1, name: B}\n"
	_, err := s.Seed(ctx, testutil.Catalog(), []byte(doc))
	require.Error(t, err)

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM studio").Scan(&n))
	assert.Equal(t, 0, n)
}

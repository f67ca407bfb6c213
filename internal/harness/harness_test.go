package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestdata(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestRun_TestdataScenariosPass(t *testing.T) {
	for _, name := range []string{"ghibli_catalog", "relation_paths", "cursor_pages"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(context.Background(), loadTestdata(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_RecordsQueryResults(t *testing.T) {
	result, err := Run(context.Background(), loadTestdata(t, "ghibli_catalog"))
	require.NoError(t, err)
	require.Len(t, result.Queries, 3)

	first, ok := result.Query("ghibli_by_year")
	require.True(t, ok)
	assert.Equal(t, []any{int64(10), int64(3)}, first.IDs)
	assert.Equal(t, int64(3), first.Total)
	assert.Equal(t, 1, first.Joins)
	assert.Contains(t, first.SQL, `LEFT JOIN "studio" AS "movie_studio"`)
	assert.Equal(t, true, first.PageInfo["hasNextPage"])
	assert.Equal(t, float64(3), first.PageInfo["totalCount"])

	rejected, ok := result.Query("unknown_field")
	require.True(t, ok)
	assert.Equal(t, "E201", rejected.Error)
	assert.Empty(t, rejected.SQL)
	assert.Empty(t, rejected.IDs)

	_, ok = result.Query("missing")
	assert.False(t, ok)
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario := loadTestdata(t, "ghibli_catalog")
	total := int64(99)
	scenario.Queries[0].Expect = &ExpectClause{
		IDs:      []any{3, 10},
		Total:    &total,
		PageInfo: map[string]any{"hasPreviousPage": true, "nope": 1},
	}
	scenario.Queries[2].Expect = nil
	scenario.Assertions = append(scenario.Assertions, Assertion{Type: AssertJoinCount, Query: "ghibli_by_year", Count: 4})

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	all := strings.Join(result.Errors, "\n")
	assert.Contains(t, all, "query ghibli_by_year: expected ids [3 10], got [10 3]")
	assert.Contains(t, all, "expected total 99, got 3")
	assert.Contains(t, all, "expected page_info.hasPreviousPage true, got false")
	assert.Contains(t, all, `page_info has no key "nope"`)
	assert.Contains(t, all, "query unknown_field: unexpected error E201")
	assert.Contains(t, all, "Assertion failed: join_count")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	scenario := loadTestdata(t, "ghibli_catalog")
	scenario.Queries[0].Expect = &ExpectClause{Error: "E211"}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, strings.Join(result.Errors, "\n"), `expected error "E211", got ""`)
}

func TestRun_MaxLimitOverride(t *testing.T) {
	scenario := loadTestdata(t, "ghibli_catalog")
	scenario.MaxLimit = 1
	scenario.Queries = scenario.Queries[:1]
	scenario.Queries[0].Expect = &ExpectClause{Error: "E210"}
	scenario.Assertions = nil

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_SetupFailures(t *testing.T) {
	base := loadTestdata(t, "ghibli_catalog")

	t.Run("schema", func(t *testing.T) {
		s := *base
		s.Schema = t.TempDir()
		_, err := Run(context.Background(), &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load schema")
	})

	t.Run("ddl", func(t *testing.T) {
		s := *base
		s.DDL = filepath.Join(t.TempDir(), "bad.sql")
		require.NoError(t, os.WriteFile(s.DDL, []byte("CREATE TABLE;"), 0o644))
		_, err := Run(context.Background(), &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create tables")
	})

	t.Run("fixtures", func(t *testing.T) {
		s := *base
		s.Fixtures = filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(s.Fixtures, []byte("Podcast:\n  - {id: 1}\n"), 0o644))
		_, err := Run(context.Background(), &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to seed fixtures")
	})
}

func TestCheckExpect(t *testing.T) {
	qr := QueryResult{
		Name:     "q",
		IDs:      []any{int64(1), int64(2)},
		Total:    2,
		PageInfo: map[string]any{"hasNextPage": false, "endCursor": "2", "startCursor": nil},
	}

	assert.Empty(t, checkExpect(qr, nil))
	assert.Empty(t, checkExpect(qr, &ExpectClause{IDs: []any{1, 2}}))
	assert.Empty(t, checkExpect(qr, &ExpectClause{PageInfo: map[string]any{"endCursor": "2", "startCursor": nil}}))
	assert.Len(t, checkExpect(qr, &ExpectClause{IDs: []any{1}}), 1)
	assert.Len(t, checkExpect(qr, &ExpectClause{IDs: []any{}}), 1)

	failed := QueryResult{Name: "q", Error: "E204"}
	assert.Empty(t, checkExpect(failed, &ExpectClause{Error: "E204"}))
	assert.Len(t, checkExpect(failed, &ExpectClause{IDs: []any{1}}), 1)
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Queries = []QueryResult{
		{Name: "a", SQL: `SELECT * FROM "movie" GROUP BY "movie"."id"`, Joins: 2, IDs: []any{int64(1), int64(2)}},
		{Name: "b", SQL: `SELECT * FROM "movie"`, IDs: []any{int64(1), int64(2)}},
		{Name: "c", IDs: []any{int64(2), int64(1)}},
		{Name: "failed", Error: "E201"},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertSQLContains, Query: "a", Text: "GROUP BY"},
		{Type: AssertJoinCount, Query: "a", Count: 2},
		{Type: AssertJoinCount, Query: "b", Count: 0},
		{Type: AssertSameRows, Queries: []string{"a", "b"}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"sql_contains", Assertion{Type: AssertSQLContains, Query: "b", Text: "GROUP BY"}, `SQL of b to contain "GROUP BY"`},
		{"join_count", Assertion{Type: AssertJoinCount, Query: "a", Count: 1}, "Actual: 2 join(s)"},
		{"same_rows order matters", Assertion{Type: AssertSameRows, Queries: []string{"a", "c"}}, "c ids [2 1]"},
		{"failed query", Assertion{Type: AssertJoinCount, Query: "failed"}, "query failed failed with E201"},
		{"unknown query", Assertion{Type: AssertSQLContains, Query: "zzz", Text: "x"}, `unknown query "zzz"`},
		{"unknown type", Assertion{Type: "trace_order"}, `unknown assertion type "trace_order"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesSQL(t *testing.T) {
	err := &AssertionError{Type: AssertJoinCount, Expected: "1", Actual: "2", SQL: "SELECT 1"}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: join_count")
	assert.Contains(t, msg, "Expected: 1")
	assert.Contains(t, msg, "SQL: SELECT 1")
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(nil, nil))
	assert.False(t, valuesEqual(nil, 0))
	assert.True(t, valuesEqual(int64(3), 3))
	assert.True(t, valuesEqual(float64(3), 3))
	assert.True(t, valuesEqual("3", "3"))
	assert.False(t, valuesEqual(true, false))
}

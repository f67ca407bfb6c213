package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_GhibliCatalog(t *testing.T) {
	result, err := RunWithGolden(t, loadTestdata(t, "ghibli_catalog"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestSnapshot_Format(t *testing.T) {
	r := NewResult()
	r.Queries = []QueryResult{
		{Name: "ok", SQL: "SELECT 1", IDs: []any{int64(1)}, Total: 1},
		{Name: "bad", Error: "E210"},
	}

	want := "-- ok\nSELECT 1\nids: [1]\ntotal: 1\n\n-- bad\nerror: E210\n"
	assert.Equal(t, want, string(Snapshot(r)))
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSQLite(t *testing.T) {
	req := writeRequest(t, "ghibli.yaml", ghibliRequest)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions("text", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, `LEFT JOIN "studio" AS "movie_studio" ON "movie_studio"."id" = "movie"."studio_id"`)
	assert.Contains(t, output, `WHERE "movie_studio"."name" = ?`)
	assert.Contains(t, output, `GROUP BY "movie"."year", "movie"."id"`)
	assert.Contains(t, output, "LIMIT 2 OFFSET 0")
	assert.Contains(t, output, "SELECT COUNT(*)")
	assert.Contains(t, output, "args: [Ghibli]")
}

func TestCompilePostgresJSON(t *testing.T) {
	req := writeRequest(t, "ghibli.yaml", ghibliRequest)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions("json", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req, "--dialect", "postgres"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Movie", resp.Data.Entity)
	assert.Equal(t, "postgres", resp.Data.Dialect)
	assert.Contains(t, resp.Data.SQL, `SELECT DISTINCT ON ("movie"."year", "movie"."id")`)
	assert.Contains(t, resp.Data.SQL, `"movie_studio"."name" = $1`)
	assert.Equal(t, []any{"Ghibli"}, resp.Data.Args)
	assert.Contains(t, resp.Data.CountSQL, "COUNT(*)")
	assert.Contains(t, resp.Data.Explain, ":p1")
}

func TestCompileExplain(t *testing.T) {
	req := writeRequest(t, "ghibli.yaml", ghibliRequest)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions("text", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req, "--explain"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, `"movie_studio"."name" = :p1`)
	assert.NotContains(t, output, "args:")
	assert.NotContains(t, output, "COUNT(*)")
}

func TestCompileOutputFile(t *testing.T) {
	req := writeRequest(t, "ghibli.yaml", ghibliRequest)
	outFile := filepath.Join(t.TempDir(), "query.sql")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions("text", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req, "-o", outFile})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `FROM "movie" AS "movie"`)
	assert.Contains(t, string(data), ";\n")
}

func TestCompileRejectedRequest(t *testing.T) {
	req := writeRequest(t, "bad.yaml", "entity: Movie\npagination: {first: 2, last: 2}\n")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions("text", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E210]")
}

func TestCompileInvalidDialect(t *testing.T) {
	req := writeRequest(t, "ghibli.yaml", ghibliRequest)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(testOptions("text", ""))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req, "--dialect", "oracle"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E001]")
}

func TestCompileDialectFromDriver(t *testing.T) {
	opts := &CompileOptions{RootOptions: &RootOptions{Driver: "pgx"}}
	dialect, err := opts.dialect()
	require.NoError(t, err)
	assert.Equal(t, "postgres", string(dialect))

	opts.Dialect = "sqlite"
	dialect, err = opts.dialect()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", string(dialect))
}

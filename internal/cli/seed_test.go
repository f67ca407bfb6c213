package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogql/internal/store"
	"github.com/roach88/catalogql/internal/testutil"
)

func writeSeedFiles(t *testing.T) (fixtures, ddl string) {
	t.Helper()
	dir := t.TempDir()
	fixtures = filepath.Join(dir, "fixtures.yaml")
	ddl = filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(fixtures, testutil.Fixtures, 0644))
	require.NoError(t, os.WriteFile(ddl, []byte(testutil.SQLiteDDL), 0644))
	return fixtures, ddl
}

func TestSeedWithDDL(t *testing.T) {
	fixtures, ddl := writeSeedFiles(t)
	db := filepath.Join(t.TempDir(), "catalog.db")

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(testOptions("text", db))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{fixtures, "--ddl", ddl})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "✓ Seeded 44 rows\n", buf.String())

	st, err := store.OpenSQLite(db)
	require.NoError(t, err)
	defer st.Close()

	var n int
	require.NoError(t, st.DB().QueryRow(`SELECT COUNT(*) FROM movie_genre`).Scan(&n))
	assert.Equal(t, 15, n)
}

func TestSeedJSON(t *testing.T) {
	fixtures, ddl := writeSeedFiles(t)
	db := filepath.Join(t.TempDir(), "catalog.db")

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(testOptions("json", db))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{fixtures, "--ddl", ddl})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string     `json:"status"`
		Data   SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 44, resp.Data.Rows)
}

func TestSeedWithoutTables(t *testing.T) {
	fixtures, _ := writeSeedFiles(t)
	db := filepath.Join(t.TempDir(), "empty.db")

	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(testOptions("text", db))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{fixtures})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E008]")
}

func TestSeedMissingFixtures(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(testOptions("text", filepath.Join(t.TempDir(), "catalog.db")))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/fixtures.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E005]")
}

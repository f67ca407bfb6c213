package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountText(t *testing.T) {
	db := seededDB(t)
	req := writeRequest(t, "drama.yaml", "entity: Movie\nfilter: {genres: {name: {eq: Drama}}}\n")

	buf := &bytes.Buffer{}
	cmd := NewCountCommand(testOptions("text", db))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "5\n", buf.String())
}

func TestCountCountsJoinedRows(t *testing.T) {
	db := seededDB(t)
	// Movies 1, 3 and 10 are both Animation and Fantasy.
	req := writeRequest(t, "genres.yaml", "entity: Movie\nfilter: {genres: {name: {in: [Animation, Fantasy]}}}\n")

	buf := &bytes.Buffer{}
	cmd := NewCountCommand(testOptions("json", db))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string      `json:"status"`
		Data   CountResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, CountResult{Entity: "Movie", Count: 8}, resp.Data)
}

func TestCountIgnoresPagination(t *testing.T) {
	db := seededDB(t)
	req := writeRequest(t, "paged.yaml", "entity: Studio\nsort: {name: DESC}\npagination: {limit: 1, offset: 0}\n")

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	opts := testOptions("text", db)
	opts.Verbose = true
	cmd := NewCountCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{req})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "3\n", buf.String())
	assert.Contains(t, errBuf.String(), "count ignores sort and pagination")
}

func TestCountUnknownEntity(t *testing.T) {
	db := seededDB(t)
	req := writeRequest(t, "bad.yaml", "entity: Album\n")

	buf := &bytes.Buffer{}
	cmd := NewCountCommand(testOptions("text", db))
	cmd.SetOut(buf)
	cmd.SetArgs([]string{req})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E205]")
}

package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	reg := Catalog()

	assert.Equal(t, []string{"Genre", "Movie", "Person", "Review", "Studio"}, reg.Names())

	movie, ok := reg.Entity("Movie")
	require.True(t, ok)
	assert.Equal(t, "movie", movie.Table)

	studio, ok := movie.Relation("studio")
	require.True(t, ok)
	assert.Equal(t, "studio_id", studio.LocalColumn)
	assert.Equal(t, "id", studio.RemoteColumn)
}

func TestEmbeddedFiles(t *testing.T) {
	assert.Contains(t, SQLiteDDL, "CREATE TABLE movie")
	assert.Contains(t, PostgresDDL, "TIMESTAMPTZ")
	assert.Contains(t, string(Fixtures), "movie_genre:")
}

// Package testutil provides the shared movie catalog used across catalogql
// tests: entity metadata, DDL for both dialects, and fixture rows.
package testutil

import (
	_ "embed"

	"github.com/roach88/catalogql/internal/schema"
)

//go:embed sqlite.sql
var SQLiteDDL string

//go:embed postgres.sql
var PostgresDDL string

//go:embed fixtures.yaml
var Fixtures []byte

// Catalog returns a fresh registry for the test catalog:
//
//	Studio 1──* Movie *──1 Person (director)
//	            Movie *──* Genre (movie_genre)
//	            Movie 1──* Review
//
// schemas/catalog.cue describes the same entities.
func Catalog() *schema.Registry {
	return schema.MustRegistry(
		&schema.Entity{
			Name:       "Studio",
			PrimaryKey: []string{"id"},
			Fields: []schema.Field{
				{Name: "id", Type: schema.TypeInt},
				{Name: "name", Type: schema.TypeString},
				{Name: "country", Type: schema.TypeString, Nullable: true},
			},
			Relations: []schema.Relation{
				{Name: "movies", Target: "Movie", Kind: schema.OneToMany},
			},
		},
		&schema.Entity{
			Name:       "Person",
			PrimaryKey: []string{"id"},
			Fields: []schema.Field{
				{Name: "id", Type: schema.TypeInt},
				{Name: "name", Type: schema.TypeString},
				{Name: "age", Type: schema.TypeInt},
				{Name: "nickname", Type: schema.TypeString, Nullable: true},
			},
			Relations: []schema.Relation{
				{Name: "directed", Target: "Movie", Kind: schema.OneToMany, RemoteColumn: "director_id"},
			},
		},
		&schema.Entity{
			Name:       "Genre",
			PrimaryKey: []string{"id"},
			Fields: []schema.Field{
				{Name: "id", Type: schema.TypeInt},
				{Name: "name", Type: schema.TypeString},
			},
			Relations: []schema.Relation{
				{Name: "movies", Target: "Movie", Kind: schema.ManyToMany, Through: &schema.Through{Table: "movie_genre"}},
			},
		},
		&schema.Entity{
			Name:       "Movie",
			PrimaryKey: []string{"id"},
			Fields: []schema.Field{
				{Name: "id", Type: schema.TypeInt},
				{Name: "title", Type: schema.TypeString},
				{Name: "year", Type: schema.TypeInt},
				{Name: "rating", Type: schema.TypeFloat, Nullable: true},
				{Name: "price", Type: schema.TypeDecimal},
				{Name: "releasedAt", Type: schema.TypeTime},
				{Name: "public", Type: schema.TypeBool},
				{Name: "externalId", Type: schema.TypeUUID},
				{Name: "studioId", Type: schema.TypeInt, Nullable: true},
				{Name: "directorId", Type: schema.TypeInt, Nullable: true},
			},
			Relations: []schema.Relation{
				{Name: "studio", Target: "Studio", Kind: schema.ManyToOne},
				{Name: "director", Target: "Person", Kind: schema.ManyToOne},
				{Name: "genres", Target: "Genre", Kind: schema.ManyToMany, Through: &schema.Through{Table: "movie_genre"}},
				{Name: "reviews", Target: "Review", Kind: schema.OneToMany},
			},
		},
		&schema.Entity{
			Name:       "Review",
			PrimaryKey: []string{"id"},
			Fields: []schema.Field{
				{Name: "id", Type: schema.TypeInt},
				{Name: "movieId", Type: schema.TypeInt},
				{Name: "score", Type: schema.TypeInt},
				{Name: "body", Type: schema.TypeString},
			},
			Relations: []schema.Relation{
				{Name: "movie", Target: "Movie", Kind: schema.ManyToOne},
			},
		},
	)
}

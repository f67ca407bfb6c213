package querysql

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/schema"
	"github.com/roach88/catalogql/internal/testutil"
)

// randomSort builds a sort tree over ent with relation nesting up to depth.
func randomSort(r *rand.Rand, reg *schema.Registry, ent *schema.Entity, depth int) queryir.Sort {
	type choice struct {
		field string
		rel   *schema.Relation
	}
	var choices []choice
	for _, f := range ent.Fields {
		choices = append(choices, choice{field: f.Name})
	}
	if depth > 1 {
		for i := range ent.Relations {
			choices = append(choices, choice{field: ent.Relations[i].Name, rel: &ent.Relations[i]})
		}
	}
	r.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })

	n := 1 + r.Intn(3)
	if n > len(choices) {
		n = len(choices)
	}

	directions := []queryir.Direction{queryir.Asc, queryir.Desc, "sideways"}
	nulls := []queryir.Nulls{queryir.NullsDefault, queryir.NullsFirst, queryir.NullsLast}

	sort := make(queryir.Sort, 0, n)
	for _, c := range choices[:n] {
		if c.rel != nil {
			sort = append(sort, queryir.SortEntry{
				Field:  c.field,
				Nested: randomSort(r, reg, reg.Target(*c.rel), depth-1),
			})
			continue
		}
		sort = append(sort, queryir.SortEntry{
			Field: c.field,
			Leaf: &queryir.SortLeaf{
				Direction: directions[r.Intn(len(directions))],
				Nulls:     nulls[r.Intn(len(nulls))],
			},
		})
	}
	return sort
}

func TestProperty_DistinctIsPrefixOfOrder(t *testing.T) {
	reg := testutil.Catalog()
	e := New(reg, DryRunBackend{Dialect: Postgres})
	r := rand.New(rand.NewSource(20240601))

	pages := []queryir.Pagination{
		nil,
		queryir.Offset{Limit: 5, Offset: 5},
		queryir.Cursor{First: queryir.Int64(3), After: queryir.String("2")},
		queryir.Cursor{Last: queryir.Int64(3), Before: queryir.String("9")},
	}

	for _, name := range reg.Names() {
		ent, _ := reg.Entity(name)
		for i := 0; i < 100; i++ {
			sort := randomSort(r, reg, ent, 1+r.Intn(3))
			page := pages[r.Intn(len(pages))]

			q := compileSelect(t, e, name, Args{Sort: sort, Pagination: page})
			require.NoError(t, checkPrefix(q.Distinct(), q.Orders()),
				"%s sort %+v: distinct %v not a prefix of %v", name, sort, q.Distinct(), orderStrings(q.Orders()))
		}
	}
}

func TestProperty_KeyTieBreakAlwaysPresent(t *testing.T) {
	reg := testutil.Catalog()
	e := New(reg, DryRunBackend{Dialect: SQLite})
	r := rand.New(rand.NewSource(7))

	for _, name := range reg.Names() {
		ent, _ := reg.Entity(name)
		key := Column{Alias: baseAlias(ent), Name: ent.PrimaryKeyFields()[0].Column}

		for i := 0; i < 100; i++ {
			sort := randomSort(r, reg, ent, 1+r.Intn(3))
			q := compileSelect(t, e, name, Args{Sort: sort})
			orders := q.Orders()

			explicit := false
			for _, entry := range sort {
				if entry.Leaf != nil && entry.Field == ent.PrimaryKey[0] {
					explicit = true
				}
			}

			positions := 0
			for _, o := range orders {
				if o.Column == key {
					positions++
				}
			}
			assert.Equal(t, 1, positions, "key ordered exactly once")

			if !explicit {
				last := orders[len(orders)-1]
				assert.Equal(t, key, last.Column)
				assert.Equal(t, queryir.Asc, last.Direction)
			}

			for _, o := range orders {
				assert.Contains(t, []queryir.Direction{queryir.Asc, queryir.Desc}, o.Direction)
			}
		}
	}
}

func TestProperty_OneJoinPerPath(t *testing.T) {
	reg := testutil.Catalog()
	e := New(reg, DryRunBackend{Dialect: Postgres})
	r := rand.New(rand.NewSource(99))
	movie, _ := reg.Entity("Movie")

	for i := 0; i < 100; i++ {
		sort := randomSort(r, reg, movie, 3)
		// Sorting the same tree twice walks every path twice.
		doubled := append(append(queryir.Sort{}, sort...), sort...)
		q := compileSelect(t, e, "Movie", Args{Sort: doubled})

		seen := make(map[string]bool)
		for _, j := range q.Joins() {
			assert.False(t, seen[j.Alias], "alias %s joined twice", j.Alias)
			seen[j.Alias] = true
		}
	}
}

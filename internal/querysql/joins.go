package querysql

import (
	"fmt"

	"github.com/roach88/catalogql/internal/schema"
)

// Join is one join instruction for the backend:
//
//	LEFT JOIN <Table> AS <Alias> ON <Alias>.<Column> = <Ref>
type Join struct {
	Table  string
	Alias  string
	Column string
	Ref    Column
}

func (j Join) String() string {
	return "LEFT JOIN " + j.clause()
}

// clause is the join without its keyword, as squirrel's LeftJoin expects.
func (j Join) clause() string {
	return fmt.Sprintf("%s AS %s ON %s = %s",
		QuoteIdent(j.Table), QuoteIdent(j.Alias),
		Column{Alias: j.Alias, Name: j.Column}, j.Ref)
}

// JoinAlias is the result of resolving one relation path.
type JoinAlias struct {
	Path   string         // dotted relation names from the root, e.g. "studio" or "reviews.movie"
	Alias  string         // alias the target entity is read through
	Entity *schema.Entity // target entity metadata
}

// JoinRegistry maps relation paths to aliases for one compile call and
// emits each path's join instructions to the query exactly once.
//
// Aliases follow <baseAlias>_<relation>. If that name is already taken by
// another path, or by an alias the caller placed on the query, a numeric
// suffix is appended. Many-to-many paths additionally reserve
// <alias>_through for the junction table.
type JoinRegistry struct {
	registry *schema.Registry
	query    Query
	paths    map[string]JoinAlias
	taken    map[string]bool
	order    []string
}

// NewJoinRegistry creates an empty registry emitting joins to q.
func NewJoinRegistry(registry *schema.Registry, q Query) *JoinRegistry {
	return &JoinRegistry{
		registry: registry,
		query:    q,
		paths:    make(map[string]JoinAlias),
		taken:    map[string]bool{q.Alias(): true},
	}
}

// Ensure returns the alias for basePath.relation, joining it on first use.
// owner is the entity read through baseAlias.
func (r *JoinRegistry) Ensure(basePath, baseAlias string, owner *schema.Entity, rel schema.Relation) JoinAlias {
	path := rel.Name
	if basePath != "" {
		path = basePath + "." + rel.Name
	}
	if ja, ok := r.paths[path]; ok {
		return ja
	}

	target := r.registry.Target(rel)
	alias := r.allocate(baseAlias + "_" + rel.Name)

	if rel.Kind == schema.ManyToMany {
		through := r.allocate(alias + "_through")
		r.query.Join(Join{
			Table:  rel.Through.Table,
			Alias:  through,
			Column: rel.Through.SourceColumn,
			Ref:    Column{Alias: baseAlias, Name: rel.LocalColumn},
		})
		r.query.Join(Join{
			Table:  target.Table,
			Alias:  alias,
			Column: rel.RemoteColumn,
			Ref:    Column{Alias: through, Name: rel.Through.TargetColumn},
		})
	} else {
		r.query.Join(Join{
			Table:  target.Table,
			Alias:  alias,
			Column: rel.RemoteColumn,
			Ref:    Column{Alias: baseAlias, Name: rel.LocalColumn},
		})
	}

	ja := JoinAlias{Path: path, Alias: alias, Entity: target}
	r.paths[path] = ja
	r.order = append(r.order, path)
	return ja
}

// Paths returns the joined relation paths in first-use order.
func (r *JoinRegistry) Paths() []string {
	return append([]string(nil), r.order...)
}

// Lookup returns the alias of an already joined path.
func (r *JoinRegistry) Lookup(path string) (JoinAlias, bool) {
	ja, ok := r.paths[path]
	return ja, ok
}

func (r *JoinRegistry) allocate(candidate string) string {
	alias := candidate
	for n := 2; r.taken[alias] || r.query.HasAlias(alias); n++ {
		alias = fmt.Sprintf("%s_%d", candidate, n)
	}
	r.taken[alias] = true
	return alias
}

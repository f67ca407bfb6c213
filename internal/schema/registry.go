package schema

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue/token"
)

// LoadError reports an invalid entity definition. Pos is set when the
// definition came from a CUE file.
type LoadError struct {
	Path    string // e.g. "Movie.relations.studio"
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Registry maps entity names to their metadata. It is populated once by
// NewRegistry and never mutated afterwards.
type Registry struct {
	entities map[string]*Entity
	names    []string // registration order
}

// NewRegistry validates the entities, fills in default table and column
// names, resolves relation targets, and returns a frozen registry.
//
// Defaults:
//   - Entity.Table: snake_case(Name)
//   - Field.Column: snake_case(Name)
//   - many-to-one / one-to-one: LocalColumn = <relation>_id, RemoteColumn = target primary key
//   - one-to-many: LocalColumn = primary key, RemoteColumn = <entity>_id
//   - many-to-many: LocalColumn = primary key, RemoteColumn = target primary key,
//     Through.SourceColumn = <entity>_id, Through.TargetColumn = <target>_id
func NewRegistry(entities ...*Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}

	for _, e := range entities {
		if e == nil || e.Name == "" {
			return nil, &LoadError{Path: "entity", Message: "entity name is required"}
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, &LoadError{Path: e.Name, Message: "duplicate entity"}
		}
		if err := normalizeEntity(e); err != nil {
			return nil, err
		}
		r.entities[e.Name] = e
		r.names = append(r.names, e.Name)
	}

	// Relations are resolved in a second pass so definitions may refer to
	// entities registered after them.
	for _, name := range r.names {
		e := r.entities[name]
		for i := range e.Relations {
			if err := r.resolveRelation(e, &e.Relations[i]); err != nil {
				return nil, err
			}
		}
		e.index()
	}

	return r, nil
}

// MustRegistry is NewRegistry that panics on error. Intended for package
// level test fixtures.
func MustRegistry(entities ...*Entity) *Registry {
	r, err := NewRegistry(entities...)
	if err != nil {
		panic(err)
	}
	return r
}

// Entity returns the metadata for name.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Entities returns all entities in registration order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, len(r.names))
	for i, name := range r.names {
		out[i] = r.entities[name]
	}
	return out
}

// Names returns the entity names sorted alphabetically.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.names...)
	sort.Strings(names)
	return names
}

// Target returns the target entity of a relation. Relations of registered
// entities always resolve.
func (r *Registry) Target(rel Relation) *Entity {
	return r.entities[rel.Target]
}

func normalizeEntity(e *Entity) error {
	if e.Table == "" {
		e.Table = SnakeCase(e.Name)
	}

	seen := make(map[string]string)
	for i := range e.Fields {
		f := &e.Fields[i]
		path := e.Name + ".fields." + f.Name
		if f.Name == "" {
			return &LoadError{Path: e.Name + ".fields", Message: "field name is required"}
		}
		if _, dup := seen[f.Name]; dup {
			return &LoadError{Path: path, Message: "duplicate field"}
		}
		seen[f.Name] = "field"
		if f.Column == "" {
			f.Column = SnakeCase(f.Name)
		}
		if !f.Type.Valid() {
			return &LoadError{Path: path, Message: fmt.Sprintf("unknown field type %q", f.Type)}
		}
	}

	for _, rel := range e.Relations {
		path := e.Name + ".relations." + rel.Name
		if rel.Name == "" {
			return &LoadError{Path: e.Name + ".relations", Message: "relation name is required"}
		}
		if kind, dup := seen[rel.Name]; dup {
			return &LoadError{Path: path, Message: fmt.Sprintf("name already used by a %s", kind)}
		}
		seen[rel.Name] = "relation"
		if rel.Name == "and" || rel.Name == "or" {
			return &LoadError{Path: path, Message: "relation name collides with a group keyword"}
		}
	}
	for _, f := range e.Fields {
		if f.Name == "and" || f.Name == "or" {
			return &LoadError{Path: e.Name + ".fields." + f.Name, Message: "field name collides with a group keyword"}
		}
	}

	if len(e.PrimaryKey) == 0 {
		return &LoadError{Path: e.Name + ".primary_key", Message: "at least one primary-key field is required"}
	}
	for _, name := range e.PrimaryKey {
		if seen[name] != "field" {
			return &LoadError{Path: e.Name + ".primary_key", Message: fmt.Sprintf("primary key %q is not a field", name)}
		}
	}
	return nil
}

func (r *Registry) resolveRelation(owner *Entity, rel *Relation) error {
	path := owner.Name + ".relations." + rel.Name

	target, ok := r.entities[rel.Target]
	if !ok {
		return &LoadError{Path: path, Message: fmt.Sprintf("unknown target entity %q", rel.Target)}
	}
	if !rel.Kind.Valid() {
		return &LoadError{Path: path, Message: fmt.Sprintf("unknown relation kind %q", rel.Kind)}
	}

	ownerKey := pkColumn(owner)
	targetKey := pkColumn(target)

	switch rel.Kind {
	case ManyToOne, OneToOne:
		if rel.LocalColumn == "" {
			rel.LocalColumn = SnakeCase(rel.Name) + "_id"
		}
		if rel.RemoteColumn == "" {
			rel.RemoteColumn = targetKey
		}
	case OneToMany:
		if rel.LocalColumn == "" {
			rel.LocalColumn = ownerKey
		}
		if rel.RemoteColumn == "" {
			rel.RemoteColumn = SnakeCase(owner.Name) + "_id"
		}
	case ManyToMany:
		if rel.Through == nil || rel.Through.Table == "" {
			return &LoadError{Path: path, Message: "many-to-many relation requires a through table"}
		}
		if rel.LocalColumn == "" {
			rel.LocalColumn = ownerKey
		}
		if rel.RemoteColumn == "" {
			rel.RemoteColumn = targetKey
		}
		if rel.Through.SourceColumn == "" {
			rel.Through.SourceColumn = SnakeCase(owner.Name) + "_id"
		}
		if rel.Through.TargetColumn == "" {
			rel.Through.TargetColumn = SnakeCase(target.Name) + "_id"
		}
	}
	if rel.Kind != ManyToMany && rel.Through != nil {
		return &LoadError{Path: path, Message: "through table is only valid on many-to-many relations"}
	}
	if rel.LocalColumn == "" || rel.RemoteColumn == "" {
		return &LoadError{Path: path, Message: "relation columns could not be derived; set local and remote explicitly"}
	}
	return nil
}

// pkColumn returns the column of a single-column primary key, or "" for
// composite keys.
func pkColumn(e *Entity) string {
	if len(e.PrimaryKey) != 1 {
		return ""
	}
	f, _ := e.Field(e.PrimaryKey[0])
	return f.Column
}

package schema

import (
	"strings"
	"unicode"
)

// FieldType is the declared storage type of a scalar field. Filter operands
// are coerced to this type before binding.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeFloat   FieldType = "float"
	TypeDecimal FieldType = "decimal"
	TypeBool    FieldType = "bool"
	TypeTime    FieldType = "time"
	TypeUUID    FieldType = "uuid"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeDecimal, TypeBool, TypeTime, TypeUUID:
		return true
	}
	return false
}

// RelationKind describes the cardinality of a relation from the owning
// entity's point of view.
type RelationKind string

const (
	ManyToOne  RelationKind = "many-to-one"
	OneToOne   RelationKind = "one-to-one"
	OneToMany  RelationKind = "one-to-many"
	ManyToMany RelationKind = "many-to-many"
)

// Valid reports whether k is one of the known relation kinds.
func (k RelationKind) Valid() bool {
	switch k {
	case ManyToOne, OneToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// Multiplies reports whether joining the relation can yield more than one
// row per owning row.
func (k RelationKind) Multiplies() bool {
	return k == OneToMany || k == ManyToMany
}

// Field is a scalar attribute of an entity.
type Field struct {
	Name     string    // API name used in filter and sort trees
	Column   string    // storage column; defaults to snake_case(Name)
	Type     FieldType // declared type
	Nullable bool
}

// Through describes the junction table of a many-to-many relation.
//
//	JOIN through ON through.SourceColumn = owner.LocalColumn
//	JOIN target  ON target.RemoteColumn  = through.TargetColumn
type Through struct {
	Table        string
	SourceColumn string
	TargetColumn string
}

// Relation links an entity to a target entity.
//
// For every kind except many-to-many the join condition is
// target.RemoteColumn = owner.LocalColumn.
type Relation struct {
	Name         string
	Target       string
	Kind         RelationKind
	LocalColumn  string
	RemoteColumn string
	Through      *Through // many-to-many only
}

// Entity is the metadata for one queryable entity.
type Entity struct {
	Name       string
	Table      string
	Fields     []Field
	Relations  []Relation
	PrimaryKey []string // field names, in key order

	fields    map[string]int
	relations map[string]int
}

// Field looks up a scalar field by API name.
func (e *Entity) Field(name string) (Field, bool) {
	if e.fields == nil {
		for _, f := range e.Fields {
			if f.Name == name {
				return f, true
			}
		}
		return Field{}, false
	}
	i, ok := e.fields[name]
	if !ok {
		return Field{}, false
	}
	return e.Fields[i], true
}

// Relation looks up a relation by name.
func (e *Entity) Relation(name string) (Relation, bool) {
	if e.relations == nil {
		for _, r := range e.Relations {
			if r.Name == name {
				return r, true
			}
		}
		return Relation{}, false
	}
	i, ok := e.relations[name]
	if !ok {
		return Relation{}, false
	}
	return e.Relations[i], true
}

// PrimaryKeyFields returns the primary-key fields in key order.
func (e *Entity) PrimaryKeyFields() []Field {
	out := make([]Field, 0, len(e.PrimaryKey))
	for _, name := range e.PrimaryKey {
		if f, ok := e.Field(name); ok {
			out = append(out, f)
		}
	}
	return out
}

// FieldByColumn looks up a scalar field by storage column.
func (e *Entity) FieldByColumn(column string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns every field's storage column in declaration order.
func (e *Entity) Columns() []string {
	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = f.Column
	}
	return cols
}

// index builds the name lookups. Called once by NewRegistry before the
// entity is shared.
func (e *Entity) index() {
	e.fields = make(map[string]int, len(e.Fields))
	for i, f := range e.Fields {
		e.fields[f.Name] = i
	}
	e.relations = make(map[string]int, len(e.Relations))
	for i, r := range e.Relations {
		e.relations[r.Name] = i
	}
}

// SnakeCase converts an API name to its default column name:
// "releasedAt" → "released_at", "externalID" → "external_id".
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

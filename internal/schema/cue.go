package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
)

// LoadDir loads every CUE file of the package in dir and builds a Registry
// from its top-level "entity" struct:
//
//	entity: Movie: {
//		table:       "movie"
//		primary_key: ["id"]
//		fields: {
//			id:    "int"
//			title: {type: "string", column: "title"}
//		}
//		relations: {
//			studio: {kind: "many-to-one", target: "Studio"}
//		}
//	}
//
// Struct field order in the source is preserved for fields and relations.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: fmt.Sprintf("schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: dir, Message: "not a directory"}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Path: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(dir, inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	return FromCUE(value)
}

// LoadString compiles CUE source text and builds a Registry from it.
func LoadString(src string) (*Registry, error) {
	value := cuecontext.New().CompileString(src, cue.Filename("schema.cue"))
	return FromCUE(value)
}

// FromCUE builds a Registry from a CUE value holding an "entity" struct.
func FromCUE(v cue.Value) (*Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("entity", err)
	}

	entVal := v.LookupPath(cue.ParsePath("entity"))
	if !entVal.Exists() {
		return nil, &LoadError{Path: "entity", Message: "no entity definitions found", Pos: v.Pos()}
	}

	iter, err := entVal.Fields()
	if err != nil {
		return nil, formatCUEError("entity", err)
	}

	var entities []*Entity
	for iter.Next() {
		e, err := parseEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	reg, err := NewRegistry(entities...)
	if err != nil {
		return nil, withPos(err, entVal)
	}
	return reg, nil
}

func parseEntity(name string, v cue.Value) (*Entity, error) {
	e := &Entity{Name: name}

	if tv := v.LookupPath(cue.ParsePath("table")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return nil, formatCUEError(name+".table", err)
		}
		e.Table = s
	}

	pkVal := v.LookupPath(cue.ParsePath("primary_key"))
	if !pkVal.Exists() {
		return nil, &LoadError{Path: name + ".primary_key", Message: "primary_key is required", Pos: v.Pos()}
	}
	if err := pkVal.Decode(&e.PrimaryKey); err != nil {
		// A single string is accepted as a one-column key.
		s, serr := pkVal.String()
		if serr != nil {
			return nil, formatCUEError(name+".primary_key", err)
		}
		e.PrimaryKey = []string{s}
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &LoadError{Path: name + ".fields", Message: "fields are required", Pos: v.Pos()}
	}
	fields, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(name+".fields", err)
	}
	for fields.Next() {
		f, err := parseField(name, fields.Label(), fields.Value())
		if err != nil {
			return nil, err
		}
		e.Fields = append(e.Fields, f)
	}

	relVal := v.LookupPath(cue.ParsePath("relations"))
	if relVal.Exists() {
		rels, err := relVal.Fields()
		if err != nil {
			return nil, formatCUEError(name+".relations", err)
		}
		for rels.Next() {
			rel, err := parseRelation(name, rels.Label(), rels.Value())
			if err != nil {
				return nil, err
			}
			e.Relations = append(e.Relations, rel)
		}
	}

	return e, nil
}

// parseField accepts either a bare type string or a struct with type,
// column and nullable.
func parseField(entity, name string, v cue.Value) (Field, error) {
	f := Field{Name: name}
	path := entity + ".fields." + name

	if s, err := v.String(); err == nil {
		f.Type = FieldType(s)
		if !f.Type.Valid() {
			return f, &LoadError{Path: path, Message: fmt.Sprintf("unknown field type %q", s), Pos: v.Pos()}
		}
		return f, nil
	}

	var raw struct {
		Type     string `json:"type"`
		Column   string `json:"column"`
		Nullable bool   `json:"nullable"`
	}
	if err := v.Decode(&raw); err != nil {
		return f, formatCUEError(path, err)
	}
	f.Type = FieldType(raw.Type)
	f.Column = raw.Column
	f.Nullable = raw.Nullable
	if !f.Type.Valid() {
		return f, &LoadError{Path: path, Message: fmt.Sprintf("unknown field type %q", raw.Type), Pos: v.Pos()}
	}
	return f, nil
}

func parseRelation(entity, name string, v cue.Value) (Relation, error) {
	path := entity + ".relations." + name

	var raw struct {
		Kind    string `json:"kind"`
		Target  string `json:"target"`
		Local   string `json:"local"`
		Remote  string `json:"remote"`
		Through *struct {
			Table  string `json:"table"`
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"through"`
	}
	if err := v.Decode(&raw); err != nil {
		return Relation{}, formatCUEError(path, err)
	}
	if raw.Target == "" {
		return Relation{}, &LoadError{Path: path, Message: "target is required", Pos: v.Pos()}
	}

	rel := Relation{
		Name:         name,
		Target:       raw.Target,
		Kind:         RelationKind(raw.Kind),
		LocalColumn:  raw.Local,
		RemoteColumn: raw.Remote,
	}
	if !rel.Kind.Valid() {
		return rel, &LoadError{Path: path, Message: fmt.Sprintf("unknown relation kind %q", raw.Kind), Pos: v.Pos()}
	}
	if raw.Through != nil {
		rel.Through = &Through{
			Table:        raw.Through.Table,
			SourceColumn: raw.Through.Source,
			TargetColumn: raw.Through.Target,
		}
	}
	return rel, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error()}
	}

	first := errs[0]
	loadErr := &LoadError{Path: path, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

// withPos attaches the position of the named entity's definition to a
// registry validation error that lacks one.
func withPos(err error, entities cue.Value) error {
	loadErr, ok := err.(*LoadError)
	if !ok || loadErr.Pos.IsValid() {
		return err
	}
	sel := loadErr.Path
	for i, c := range sel {
		if c == '.' {
			sel = sel[:i]
			break
		}
	}
	if ev := entities.LookupPath(cue.MakePath(cue.Str(sel))); ev.Exists() {
		loadErr.Pos = ev.Pos()
	}
	return loadErr
}

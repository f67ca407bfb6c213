package queryir

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/catalogql/internal/ir"
)

// DecodeError reports a malformed request document. Path is the dotted
// location of the offending key.
type DecodeError struct {
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func decodeErr(path, format string, args ...any) error {
	return &DecodeError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// DecodeFilterJSON decodes a JSON filter document.
func DecodeFilterJSON(data []byte) (Filter, error) {
	v, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	return DecodeFilter(v)
}

// DecodeSortJSON decodes a JSON sort document.
func DecodeSortJSON(data []byte) (Sort, error) {
	v, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	return DecodeSort(v)
}

// DecodePaginationJSON decodes a JSON pagination document.
func DecodePaginationJSON(data []byte) (Pagination, error) {
	v, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	return DecodePagination(v)
}

// DecodeRequestJSON decodes a full request document:
//
//	{"entity": "Movie", "filter": {...}, "sort": {...}, "pagination": {...}}
func DecodeRequestJSON(data []byte) (*Request, error) {
	v, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	return DecodeRequest(v)
}

// DecodeRequestYAML decodes a full request document written in YAML.
func DecodeRequestYAML(data []byte) (*Request, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &DecodeError{Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	return DecodeRequestNode(&node)
}

// DecodeRequestNode decodes a request held in an already parsed YAML node,
// such as a request embedded in a larger document.
func DecodeRequestNode(node *yaml.Node) (*Request, error) {
	v, err := ir.FromYAML(node)
	if err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	return DecodeRequest(v)
}

// DecodeRequest converts a decoded document into a Request. Every section is
// optional except entity.
func DecodeRequest(v ir.IRValue) (*Request, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, decodeErr("", "request must be an object, got %s", ir.Kind(v))
	}

	req := &Request{}
	for _, key := range obj.Keys {
		val := obj.Values[key]
		var err error
		switch key {
		case "entity":
			s, ok := val.(ir.IRString)
			if !ok || s == "" {
				return nil, decodeErr("entity", "must be a non-empty string")
			}
			req.Entity = string(s)
		case "filter":
			if !ir.IsNull(val) {
				req.Filter, err = DecodeFilter(val)
			}
		case "sort":
			if !ir.IsNull(val) {
				req.Sort, err = DecodeSort(val)
			}
		case "pagination":
			if !ir.IsNull(val) {
				req.Pagination, err = DecodePagination(val)
			}
		default:
			return nil, decodeErr(key, "unknown request key")
		}
		if err != nil {
			return nil, err
		}
	}
	if req.Entity == "" {
		return nil, decodeErr("entity", "is required")
	}
	return req, nil
}

// DecodeFilter converts a decoded document into a filter tree.
//
// Rules:
//   - "and" / "or" keys take a list of filter objects
//   - a key whose object value uses operator keys becomes a Leaf
//   - a key whose object value uses non-operator keys becomes a Relation
//   - an object with several keys becomes an And group in key order
func DecodeFilter(v ir.IRValue) (Filter, error) {
	return decodeFilter("", v)
}

func decodeFilter(path string, v ir.IRValue) (Filter, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, decodeErr(path, "filter must be an object, got %s", ir.Kind(v))
	}

	nodes := make([]Filter, 0, len(obj.Keys))
	for _, key := range obj.Keys {
		node, err := decodeFilterEntry(join(path, key), key, obj.Values[key])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return Group{Conj: And, Children: nodes}, nil
}

func decodeFilterEntry(path, key string, v ir.IRValue) (Filter, error) {
	if key == string(And) || key == string(Or) {
		list, ok := v.(ir.IRList)
		if !ok {
			return nil, decodeErr(path, "expected a list of filters, got %s", ir.Kind(v))
		}
		group := Group{Conj: Conjunction(key), Children: make([]Filter, 0, len(list))}
		for i, elem := range list {
			child, err := decodeFilter(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			group.Children = append(group.Children, child)
		}
		return group, nil
	}

	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, decodeErr(path, "expected an operator object or nested filter, got %s", ir.Kind(v))
	}

	var ops, fields []string
	for _, k := range obj.Keys {
		if Operator(k).Valid() {
			ops = append(ops, k)
		} else {
			fields = append(fields, k)
		}
	}

	switch {
	case len(ops) > 0 && len(fields) > 0:
		return nil, decodeErr(path, "cannot mix operators (%s) with nested keys (%s)",
			strings.Join(ops, ", "), strings.Join(fields, ", "))
	case len(fields) > 0:
		nested, err := decodeFilter(path, obj)
		if err != nil {
			return nil, err
		}
		return Relation{Field: key, Nested: nested}, nil
	}

	leaf := Leaf{Field: key, Ops: make([]OpEntry, 0, len(ops))}
	for _, k := range ops {
		op := Operator(k)
		operand := obj.Values[k]
		if op.IsRange() {
			rng, err := decodeRange(join(path, k), operand)
			if err != nil {
				return nil, err
			}
			operand = rng
		}
		leaf.Ops = append(leaf.Ops, OpEntry{Op: op, Operand: operand})
	}
	return leaf, nil
}

// decodeRange accepts {start, end} or a two-element list.
func decodeRange(path string, v ir.IRValue) (ir.IRValue, error) {
	switch val := v.(type) {
	case ir.IRObject:
		start, okStart := val.Get("start")
		end, okEnd := val.Get("end")
		if !okStart || !okEnd || val.Len() != 2 {
			return nil, decodeErr(path, "range operand must have exactly start and end")
		}
		return ir.IRRange{Start: start, End: end}, nil
	case ir.IRList:
		if len(val) != 2 {
			return nil, decodeErr(path, "range operand must have two elements, got %d", len(val))
		}
		return ir.IRRange{Start: val[0], End: val[1]}, nil
	default:
		return nil, decodeErr(path, "range operand must be {start, end}, got %s", ir.Kind(v))
	}
}

// DecodeSort converts a decoded document into a sort tree.
//
// A key maps to a leaf when its value is a direction string or an object
// using only "direction" and "nulls"; any other object is a nested sort.
func DecodeSort(v ir.IRValue) (Sort, error) {
	return decodeSort("", v)
}

func decodeSort(path string, v ir.IRValue) (Sort, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, decodeErr(path, "sort must be an object, got %s", ir.Kind(v))
	}

	sort := make(Sort, 0, len(obj.Keys))
	for _, key := range obj.Keys {
		p := join(path, key)
		entry := SortEntry{Field: key}

		switch val := obj.Values[key].(type) {
		case ir.IRString:
			entry.Leaf = &SortLeaf{Direction: ParseDirection(string(val))}
		case ir.IRObject:
			if isSortLeaf(val) {
				leaf, err := decodeSortLeaf(p, val)
				if err != nil {
					return nil, err
				}
				entry.Leaf = leaf
			} else {
				nested, err := decodeSort(p, val)
				if err != nil {
					return nil, err
				}
				entry.Nested = nested
			}
		default:
			return nil, decodeErr(p, "expected a direction or nested sort, got %s", ir.Kind(val))
		}
		sort = append(sort, entry)
	}
	return sort, nil
}

func isSortLeaf(obj ir.IRObject) bool {
	if obj.Len() == 0 {
		return true
	}
	for _, k := range obj.Keys {
		if k != "direction" && k != "nulls" {
			return false
		}
	}
	return true
}

func decodeSortLeaf(path string, obj ir.IRObject) (*SortLeaf, error) {
	leaf := &SortLeaf{Direction: Desc}
	if d, ok := obj.Get("direction"); ok && !ir.IsNull(d) {
		s, ok := d.(ir.IRString)
		if !ok {
			return nil, decodeErr(join(path, "direction"), "must be a string, got %s", ir.Kind(d))
		}
		leaf.Direction = ParseDirection(string(s))
	}
	if n, ok := obj.Get("nulls"); ok && !ir.IsNull(n) {
		s, ok := n.(ir.IRString)
		if !ok {
			return nil, decodeErr(join(path, "nulls"), "must be a string, got %s", ir.Kind(n))
		}
		nulls, err := ParseNulls(string(s))
		if err != nil {
			return nil, decodeErr(join(path, "nulls"), "%v", err)
		}
		leaf.Nulls = nulls
	}
	return leaf, nil
}

// DecodePagination converts a decoded document into a pagination request.
// Keys limit/offset select Offset; first/after/last/before select Cursor.
// Value checks (signs, first vs last) happen at compile time.
func DecodePagination(v ir.IRValue) (Pagination, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, decodeErr("pagination", "must be an object, got %s", ir.Kind(v))
	}

	var offsetKeys, cursorKeys int
	for _, k := range obj.Keys {
		switch k {
		case "limit", "offset":
			offsetKeys++
		case "first", "after", "last", "before":
			cursorKeys++
		default:
			return nil, decodeErr(join("pagination", k), "unknown pagination key")
		}
	}
	if offsetKeys > 0 && cursorKeys > 0 {
		return nil, decodeErr("pagination", "cannot mix limit/offset with cursor keys")
	}

	if offsetKeys > 0 {
		var p Offset
		var err error
		lv, hasLimit := obj.Get("limit")
		if !hasLimit {
			return nil, decodeErr("pagination.limit", "is required with offset")
		}
		if p.Limit, err = intValue("pagination.limit", lv); err != nil {
			return nil, err
		}
		if ov, ok := obj.Get("offset"); ok {
			if p.Offset, err = intValue("pagination.offset", ov); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	var c Cursor
	for _, k := range obj.Keys {
		val := obj.Values[k]
		if ir.IsNull(val) {
			continue
		}
		p := join("pagination", k)
		switch k {
		case "first", "last":
			n, err := intValue(p, val)
			if err != nil {
				return nil, err
			}
			if k == "first" {
				c.First = &n
			} else {
				c.Last = &n
			}
		case "after", "before":
			s, err := ir.Text(val)
			if err != nil {
				return nil, decodeErr(p, "cursor %v", err)
			}
			if k == "after" {
				c.After = &s
			} else {
				c.Before = &s
			}
		}
	}
	return c, nil
}

func intValue(path string, v ir.IRValue) (int64, error) {
	switch n := v.(type) {
	case ir.IRInt:
		return int64(n), nil
	case ir.IRFloat:
		if float64(n) == float64(int64(n)) {
			return int64(n), nil
		}
	}
	return 0, decodeErr(path, "must be an integer, got %s", ir.String(v))
}

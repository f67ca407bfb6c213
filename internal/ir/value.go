package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// IRValue is a sealed interface representing operand values.
// Only IRNull, IRString, IRInt, IRFloat, IRBool, IRList, IRObject and IRRange
// implement it.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents an explicit null operand.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a non-integral number.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRList represents an ordered list of values.
type IRList []IRValue

func (IRList) irValue() {}

// IRObject represents a map of keys to values with document key order kept
// in Keys. Lookups go through Get; iteration goes through Keys.
type IRObject struct {
	Keys   []string
	Values map[string]IRValue
}

func (IRObject) irValue() {}

// IRRange is a {start, end} operand pair used by range operators.
type IRRange struct {
	Start IRValue
	End   IRValue
}

func (IRRange) irValue() {}

// IRPair is a key-value pair for ordered IRObject construction.
type IRPair struct {
	Key   string
	Value IRValue
}

// O is a shorthand for IRPair.
// Example: NewIRObject(O("age", NewIRObject(O("gte", IRInt(18)))))
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// NewIRObject creates an IRObject from pairs, keeping their order. A repeated
// key keeps its first position and takes the last value.
func NewIRObject(pairs ...IRPair) IRObject {
	obj := IRObject{
		Keys:   make([]string, 0, len(pairs)),
		Values: make(map[string]IRValue, len(pairs)),
	}
	for _, p := range pairs {
		obj.Set(p.Key, p.Value)
	}
	return obj
}

// NewIRList creates an IRList from values.
func NewIRList(vals ...IRValue) IRList {
	return IRList(vals)
}

// Set stores a value, appending the key if it is new.
func (obj *IRObject) Set(key string, value IRValue) {
	if obj.Values == nil {
		obj.Values = make(map[string]IRValue)
	}
	if _, ok := obj.Values[key]; !ok {
		obj.Keys = append(obj.Keys, key)
	}
	obj.Values[key] = value
}

// Get returns the value stored under key.
func (obj IRObject) Get(key string) (IRValue, bool) {
	v, ok := obj.Values[key]
	return v, ok
}

// Len returns the number of keys.
func (obj IRObject) Len() int {
	return len(obj.Keys)
}

// IsNull reports whether v is nil or IRNull.
func IsNull(v IRValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(IRNull)
	return ok
}

// Kind returns a short name for the value's type, for error messages.
func Kind(v IRValue) string {
	switch v.(type) {
	case nil, IRNull:
		return "null"
	case IRString:
		return "string"
	case IRInt:
		return "int"
	case IRFloat:
		return "float"
	case IRBool:
		return "bool"
	case IRList:
		return "list"
	case IRObject:
		return "object"
	case IRRange:
		return "range"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Native converts a value into plain Go values: nil, string, int64, float64,
// bool, []any, map[string]any. Ranges become a two-element []any.
func Native(v IRValue) any {
	switch val := v.(type) {
	case nil, IRNull:
		return nil
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRFloat:
		return float64(val)
	case IRBool:
		return bool(val)
	case IRList:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case IRObject:
		out := make(map[string]any, len(val.Keys))
		for _, k := range val.Keys {
			out[k] = Native(val.Values[k])
		}
		return out
	case IRRange:
		return []any{Native(val.Start), Native(val.End)}
	default:
		return nil
	}
}

// Text renders scalar values as plain text: strings as-is, numbers in their
// shortest decimal form. Used for cursors that arrive as numbers.
func Text(v IRValue) (string, error) {
	switch val := v.(type) {
	case IRString:
		return string(val), nil
	case IRInt:
		return strconv.FormatInt(int64(val), 10), nil
	case IRFloat:
		return strconv.FormatFloat(float64(val), 'f', -1, 64), nil
	case IRBool:
		return strconv.FormatBool(bool(val)), nil
	default:
		return "", fmt.Errorf("expected a scalar, found %s", Kind(v))
	}
}

// String renders a value in a compact JSON-like form for diagnostics.
func String(v IRValue) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v IRValue) {
	switch val := v.(type) {
	case nil, IRNull:
		b.WriteString("null")
	case IRString:
		b.WriteString(strconv.Quote(string(val)))
	case IRInt, IRFloat, IRBool:
		s, _ := Text(val)
		b.WriteString(s)
	case IRList:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, elem)
		}
		b.WriteByte(']')
	case IRObject:
		b.WriteByte('{')
		for i, k := range val.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeValue(b, val.Values[k])
		}
		b.WriteByte('}')
	case IRRange:
		b.WriteString(`{"start":`)
		writeValue(b, val.Start)
		b.WriteString(`,"end":`)
		writeValue(b, val.End)
		b.WriteByte('}')
	}
}

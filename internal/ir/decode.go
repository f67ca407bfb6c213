package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// DecodeJSON parses a JSON document into an IRValue.
//
// Unlike json.Unmarshal into map[string]any, object key order is preserved,
// integers stay int64 (json.Number), and duplicate keys are rejected. All
// strings, including object keys, are NFC normalized.
func DecodeJSON(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}

	// Trailing content after the first value is an error.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (IRValue, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unexpected end of JSON input")
		}
		return nil, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (IRValue, error) {
	switch t := tok.(type) {
	case nil:
		return IRNull{}, nil
	case bool:
		return IRBool(t), nil
	case string:
		return IRString(norm.NFC.String(t)), nil
	case json.Number:
		return numberValue(t.String())
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func decodeJSONObject(dec *json.Decoder) (IRValue, error) {
	obj := IRObject{Values: map[string]IRValue{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
		}
		key = norm.NFC.String(key)
		if _, dup := obj.Values[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		obj.Set(key, v)
	}
	// Consume the closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeJSONArray(dec *json.Decoder) (IRValue, error) {
	list := IRList{}
	for dec.More() {
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", len(list), err)
		}
		list = append(list, v)
	}
	// Consume the closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}

// numberValue converts number text into IRInt when it is integral and fits
// in int64, otherwise IRFloat.
func numberValue(s string) (IRValue, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IRInt(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("number %q out of range", s)
	}
	return IRFloat(f), nil
}

// FromYAML converts a yaml.v3 node into an IRValue, keeping mapping key
// order. Aliases are followed; tags other than the core scalar tags are
// treated as strings.
func FromYAML(node *yaml.Node) (IRValue, error) {
	if node == nil {
		return IRNull{}, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return IRNull{}, nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	case yaml.MappingNode:
		obj := IRObject{Values: map[string]IRValue{}}
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			key := norm.NFC.String(keyNode.Value)
			if _, dup := obj.Values[key]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
			}
			v, err := FromYAML(valNode)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			obj.Set(key, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make(IRList, 0, len(node.Content))
		for i, elem := range node.Content {
			v, err := FromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		return yamlScalar(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %v", node.Line, node.Kind)
	}
}

func yamlScalar(node *yaml.Node) (IRValue, error) {
	switch node.ShortTag() {
	case "!!null":
		return IRNull{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return IRBool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return IRInt(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("line %d: number %q out of range", node.Line, node.Value)
		}
		return IRFloat(f), nil
	default:
		return IRString(norm.NFC.String(node.Value)), nil
	}
}

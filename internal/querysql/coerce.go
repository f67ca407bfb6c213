package querysql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/catalogql/internal/ir"
	"github.com/roach88/catalogql/internal/schema"
)

// Coerce converts a fixture or operand value into the Go value bound for a
// field of type t. Null converts to nil.
func Coerce(t schema.FieldType, v ir.IRValue) (any, error) {
	if v == nil || ir.IsNull(v) {
		return nil, nil
	}
	return coerce(t, v)
}

// coerce converts a non-null scalar operand into the Go value bound for a
// field of type t.
func coerce(t schema.FieldType, v ir.IRValue) (any, error) {
	switch t {
	case schema.TypeString:
		if s, ok := v.(ir.IRString); ok {
			return string(s), nil
		}

	case schema.TypeInt:
		switch n := v.(type) {
		case ir.IRInt:
			return int64(n), nil
		case ir.IRFloat:
			if f := float64(n); f == math.Trunc(f) && math.Abs(f) < 1<<63 {
				return int64(f), nil
			}
			return nil, fmt.Errorf("%v is not an integer", float64(n))
		}

	case schema.TypeFloat:
		switch n := v.(type) {
		case ir.IRInt:
			return float64(n), nil
		case ir.IRFloat:
			return float64(n), nil
		}

	case schema.TypeDecimal:
		switch n := v.(type) {
		case ir.IRInt:
			return decimal.NewFromInt(int64(n)), nil
		case ir.IRFloat:
			return decimal.NewFromFloat(float64(n)), nil
		case ir.IRString:
			d, err := decimal.NewFromString(string(n))
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q", string(n))
			}
			return d, nil
		}

	case schema.TypeBool:
		if b, ok := v.(ir.IRBool); ok {
			return bool(b), nil
		}

	case schema.TypeTime:
		if s, ok := v.(ir.IRString); ok {
			return parseTime(string(s))
		}

	case schema.TypeUUID:
		if s, ok := v.(ir.IRString); ok {
			id, err := uuid.Parse(string(s))
			if err != nil {
				return nil, fmt.Errorf("invalid uuid %q", string(s))
			}
			return id, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %s", t, ir.Kind(v))
}

// parseText converts cursor text into the Go value of a key field.
func parseText(t schema.FieldType, s string) (any, error) {
	switch t {
	case schema.TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	case schema.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return f, nil
	case schema.TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", s)
		}
		return b, nil
	default:
		return coerce(t, ir.IRString(s))
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime parses RFC 3339 timestamps, naive timestamps and plain dates as
// UTC.
func ParseTime(s string) (time.Time, error) {
	return parseTime(s)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339 or YYYY-MM-DD)", s)
}

// FormatCursor renders a primary-key value as cursor text. Cursors are the
// literal key, not an opaque token.
func FormatCursor(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/catalogql/internal/querysql"
	"github.com/roach88/catalogql/internal/schema"
)

// sqliteTimeLayouts are the formats go-sqlite3 writes time.Time values in.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// normalize maps a scanned driver value to the Go type of field type t:
//
//	int → int64, float → float64, decimal → decimal.Decimal, bool → bool,
//	time → time.Time (UTC), uuid → uuid.UUID, string → string
//
// NULL stays nil.
func normalize(t schema.FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		if t == schema.TypeUUID && len(b) == 16 {
			return uuid.FromBytes(b)
		}
		v = string(b)
	}

	switch t {
	case schema.TypeInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int32:
			return int64(n), nil
		case int:
			return int64(n), nil
		case float64:
			return int64(n), nil
		case string:
			return strconv.ParseInt(n, 10, 64)
		}

	case schema.TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			return strconv.ParseFloat(n, 64)
		}

	case schema.TypeDecimal:
		switch n := v.(type) {
		case decimal.Decimal:
			return n, nil
		case float64:
			return decimal.NewFromFloat(n), nil
		case int64:
			return decimal.NewFromInt(n), nil
		case string:
			return decimal.NewFromString(n)
		}

	case schema.TypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		case string:
			return strconv.ParseBool(b)
		}

	case schema.TypeTime:
		switch ts := v.(type) {
		case time.Time:
			return ts.UTC(), nil
		case string:
			return parseStoredTime(ts)
		}

	case schema.TypeUUID:
		switch id := v.(type) {
		case uuid.UUID:
			return id, nil
		case [16]byte:
			return uuid.UUID(id), nil
		case string:
			return uuid.Parse(id)
		}

	case schema.TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		default:
			return fmt.Sprint(s), nil
		}
	}
	return nil, fmt.Errorf("cannot read %T as %s", v, t)
}

func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range sqliteTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return querysql.ParseTime(s)
}

package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect selects the SQL flavour SelectQuery renders.
type Dialect string

const (
	// Postgres renders $n placeholders, ILIKE and DISTINCT ON.
	Postgres Dialect = "postgres"
	// SQLite renders ? placeholders, LOWER(..) LIKE LOWER(..) for ilike, and
	// emulates DISTINCT ON with GROUP BY over the distinct columns.
	SQLite Dialect = "sqlite"
)

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	default:
		return "", fmt.Errorf("no SQL dialect for driver %q", driver)
	}
}

// ParseDialect accepts "postgres" or "sqlite".
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case Postgres:
		return Postgres, nil
	case SQLite:
		return SQLite, nil
	default:
		return "", fmt.Errorf("unknown dialect %q (want postgres or sqlite)", s)
	}
}

// Placeholders is the squirrel placeholder format of the dialect.
func (d Dialect) Placeholders() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

// QuoteIdent quotes an identifier with double quotes, which both dialects
// accept.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

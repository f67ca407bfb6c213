package querysql

import (
	"context"

	"github.com/roach88/catalogql/internal/schema"
)

// Row is one fetched entity keyed by field name.
type Row map[string]any

// Query is a backend query under construction. The engine only ever adds
// instructions; it never reads them back.
type Query interface {
	// Alias is the base alias the query reads its root entity through.
	Alias() string
	// HasAlias reports whether alias is already used by the query.
	HasAlias(alias string) bool

	Join(j Join)
	Where(p Predicate)
	OrderBy(o Order)
	DistinctOn(cols []Column)
	Limit(n uint64)
	Offset(n uint64)
}

// Backend opens and executes queries.
type Backend interface {
	// Open starts a query over entity read through alias.
	Open(entity *schema.Entity, alias string) Query
	// Fetch executes q and returns its rows in order.
	Fetch(ctx context.Context, q Query) ([]Row, error)
	// Count executes q as a count aggregate.
	Count(ctx context.Context, q Query) (int64, error)
}

// DryRunBackend builds SelectQuery values without a database. Fetch and
// Count return ErrNoExecution. Used to show compiled SQL.
type DryRunBackend struct {
	Dialect Dialect
}

// Open returns a new SelectQuery in the backend's dialect.
func (b DryRunBackend) Open(entity *schema.Entity, alias string) Query {
	return NewSelectQuery(b.Dialect, entity, alias)
}

// Fetch always fails with ErrNoExecution.
func (DryRunBackend) Fetch(context.Context, Query) ([]Row, error) {
	return nil, ErrNoExecution
}

// Count always fails with ErrNoExecution.
func (DryRunBackend) Count(context.Context, Query) (int64, error) {
	return 0, ErrNoExecution
}

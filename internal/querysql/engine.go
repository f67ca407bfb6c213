package querysql

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/schema"
)

// Args are the optional request parts of a fetch.
type Args struct {
	Filter     queryir.Filter     // nil = no filter
	Sort       queryir.Sort       // nil = primary key order only
	Pagination queryir.Pagination // nil = unpaginated
}

// Engine compiles requests against a schema registry and executes them on a
// backend. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	registry *schema.Registry
	backend  Backend
	maxLimit int64
	ids      IDGenerator
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxLimit caps limit, first and last. Zero or negative disables the cap.
//
// Default: 100 (DefaultMaxLimit)
func WithMaxLimit(n int64) EngineOption {
	return func(e *Engine) {
		e.maxLimit = n
	}
}

// WithIDGenerator sets the query id source used in logs.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine over registry and backend.
func New(registry *schema.Registry, backend Backend, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		backend:  backend,
		maxLimit: DefaultMaxLimit,
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's schema registry.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// compiled is a successfully compiled request waiting to be replayed onto a
// backend query.
type compiled struct {
	ctx  *QueryContext
	rec  *recorder
	plan *cursorPlan
}

// open replays the compiled instructions onto a fresh backend query.
func (c *compiled) open(b Backend) Query {
	q := b.Open(c.ctx.Entity, c.rec.Alias())
	c.rec.replay(q)
	if ex, ok := q.(interface{ Explain() string }); ok {
		slog.Debug("compiled query",
			"query_id", c.ctx.ID,
			"entity", c.ctx.Entity.Name,
			"sql", ex.Explain())
	}
	return q
}

// Compile compiles a fetch request and returns the backend query without
// executing it.
func (e *Engine) Compile(entity string, args Args) (Query, error) {
	c, err := e.compileFetch(entity, args)
	if err != nil {
		return nil, err
	}
	return c.open(e.backend), nil
}

// CompileCount compiles a count request without executing it.
func (e *Engine) CompileCount(entity string, filter queryir.Filter) (Query, error) {
	c, err := e.compileCount(entity, filter)
	if err != nil {
		return nil, err
	}
	return c.open(e.backend), nil
}

// FetchMany compiles and executes a fetch. The sort tree is compiled even
// when nil so the primary-key tie-break and distinct restriction always
// apply. Cursor requests come back trimmed, in ascending key order, with
// PageInfo set.
func (e *Engine) FetchMany(ctx context.Context, entity string, args Args) (*Result, error) {
	c, err := e.compileFetch(entity, args)
	if err != nil {
		return nil, err
	}

	rows, err := e.backend.Fetch(ctx, c.open(e.backend))
	if err != nil {
		slog.Error("fetch failed", "query_id", c.ctx.ID, "entity", entity, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", entity, err)
	}

	if c.plan == nil {
		return &Result{Rows: rows}, nil
	}
	rows, info := c.plan.trim(rows)
	return &Result{Rows: rows, PageInfo: &info}, nil
}

// Count counts rows matching filter. No sort, distinct restriction or
// pagination is applied, so relation filters that match several related
// rows can count a root row more than once.
func (e *Engine) Count(ctx context.Context, entity string, filter queryir.Filter) (int64, error) {
	c, err := e.compileCount(entity, filter)
	if err != nil {
		return 0, err
	}

	n, err := e.backend.Count(ctx, c.open(e.backend))
	if err != nil {
		slog.Error("count failed", "query_id", c.ctx.ID, "entity", entity, "error", err)
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return n, nil
}

// FetchPage runs FetchMany and Count concurrently and combines them into an
// offset page. Pagination must be nil or queryir.Offset.
func (e *Engine) FetchPage(ctx context.Context, entity string, args Args) (*OffsetPage, error) {
	var limit, offset int64
	switch p := args.Pagination.(type) {
	case nil:
	case queryir.Offset:
		limit, offset = p.Limit, p.Offset
	case *queryir.Offset:
		limit, offset = p.Limit, p.Offset
	default:
		return nil, validationErr(ErrCodePagination, "pagination", "offset pages need limit/offset pagination, got %T", p)
	}

	fetch, err := e.compileFetch(entity, args)
	if err != nil {
		return nil, err
	}
	count, err := e.compileCount(entity, args.Filter)
	if err != nil {
		return nil, err
	}

	var rows []Row
	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := e.backend.Fetch(gctx, fetch.open(e.backend))
		if err != nil {
			return fmt.Errorf("fetch %s: %w", entity, err)
		}
		rows = r
		return nil
	})
	g.Go(func() error {
		n, err := e.backend.Count(gctx, count.open(e.backend))
		if err != nil {
			return fmt.Errorf("count %s: %w", entity, err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("page fetch failed", "query_id", fetch.ctx.ID, "entity", entity, "error", err)
		return nil, err
	}

	if args.Pagination == nil {
		limit = total
	}
	return &OffsetPage{Nodes: rows, PageInfo: offsetPageInfo(total, limit, offset)}, nil
}

// FetchConnection fetches a cursor page and wraps it as edges. Pagination
// must be queryir.Cursor.
func (e *Engine) FetchConnection(ctx context.Context, entity string, args Args) (*Connection, error) {
	switch args.Pagination.(type) {
	case queryir.Cursor, *queryir.Cursor:
	default:
		return nil, validationErr(ErrCodePagination, "pagination", "connections need first/after or last/before pagination")
	}

	res, err := e.FetchMany(ctx, entity, args)
	if err != nil {
		return nil, err
	}

	ent, _ := e.registry.Entity(entity)
	key := ent.PrimaryKey[0]
	conn := &Connection{Edges: make([]Edge, len(res.Rows)), PageInfo: *res.PageInfo}
	for i, row := range res.Rows {
		conn.Edges[i] = Edge{Node: row, Cursor: FormatCursor(row[key])}
	}
	return conn, nil
}

// ApplyArgs augments a caller-built query whose entity is read through
// alias (q.Alias() when alias is empty). It applies sort, then pagination,
// then filter, and no distinct restriction. Cursor pagination sets the
// over-fetch limit; trimming the extra row is left to the caller.
func (e *Engine) ApplyArgs(q Query, entity string, args Args, alias string) error {
	ent, err := e.entity(entity)
	if err != nil {
		return err
	}
	if alias == "" {
		alias = q.Alias()
	}
	if err := e.validate(args); err != nil {
		return err
	}

	rec := newRecorder(alias, q)
	qc := NewQueryContext(e.ids.Generate(), e.registry, ent, rec)
	s := scope{entity: ent, alias: alias}

	if args.Sort != nil {
		sc := &sortCompiler{ctx: qc}
		if err := sc.compile(args.Sort, s); err != nil {
			return err
		}
		sc.appendKeyTieBreak()
	}
	if _, err := applyPagination(qc, args.Pagination); err != nil {
		return err
	}
	if args.Filter != nil {
		fc := &filterCompiler{ctx: qc}
		p, err := fc.compile(args.Filter, s)
		if err != nil {
			return err
		}
		qc.AddPredicate(p)
	}

	qc.flush(false)
	rec.replay(q)
	slog.Debug("applied args", "query_id", qc.ID, "entity", entity, "alias", alias)
	return nil
}

func (e *Engine) entity(name string) (*schema.Entity, error) {
	ent, ok := e.registry.Entity(name)
	if !ok {
		return nil, validationErr(ErrCodeEntity, "entity", "unknown entity %q", name)
	}
	return ent, nil
}

// validate runs the schema-free shape checks and pagination checks.
func (e *Engine) validate(args Args) error {
	result := queryir.Validate(args.Filter, args.Sort)
	if !result.Valid {
		issue := result.Issues[0]
		code := ErrCodeOperand
		if issue.Kind == queryir.IssueOperator {
			code = ErrCodeOperator
		}
		return validationErr(code, issue.Path, "%s", issue.Message)
	}
	return validatePagination(args.Pagination, e.maxLimit)
}

// baseAlias is the alias a root entity is read through.
func baseAlias(ent *schema.Entity) string {
	return schema.SnakeCase(ent.Name)
}

func (e *Engine) compileFetch(entity string, args Args) (*compiled, error) {
	ent, err := e.entity(entity)
	if err != nil {
		return nil, err
	}
	if err := e.validate(args); err != nil {
		return nil, err
	}

	rec := newRecorder(baseAlias(ent), nil)
	qc := NewQueryContext(e.ids.Generate(), e.registry, ent, rec)
	s := scope{entity: ent, alias: rec.Alias()}

	sc := &sortCompiler{ctx: qc}
	if err := sc.compile(args.Sort, s); err != nil {
		return nil, err
	}
	sc.appendKeyTieBreak()
	qc.distinct = deriveDistinct(qc, args.Sort, s)

	if args.Filter != nil {
		fc := &filterCompiler{ctx: qc}
		p, err := fc.compile(args.Filter, s)
		if err != nil {
			return nil, err
		}
		qc.AddPredicate(p)
	}

	plan, err := applyPagination(qc, args.Pagination)
	if err != nil {
		return nil, err
	}

	if err := checkPrefix(qc.distinct, qc.orders); err != nil {
		slog.Error("distinct prefix violated", "query_id", qc.ID, "entity", entity)
		return nil, err
	}

	qc.flush(true)
	return &compiled{ctx: qc, rec: rec, plan: plan}, nil
}

func (e *Engine) compileCount(entity string, filter queryir.Filter) (*compiled, error) {
	ent, err := e.entity(entity)
	if err != nil {
		return nil, err
	}
	if err := e.validate(Args{Filter: filter}); err != nil {
		return nil, err
	}

	rec := newRecorder(baseAlias(ent), nil)
	qc := NewQueryContext(e.ids.Generate(), e.registry, ent, rec)

	if filter != nil {
		fc := &filterCompiler{ctx: qc}
		p, err := fc.compile(filter, scope{entity: ent, alias: rec.Alias()})
		if err != nil {
			return nil, err
		}
		qc.AddPredicate(p)
	}

	qc.flush(false)
	return &compiled{ctx: qc, rec: rec}, nil
}

package querysql

import (
	"github.com/roach88/catalogql/internal/queryir"
)

// DefaultMaxLimit caps page sizes when no limit is configured.
const DefaultMaxLimit = 100

// cursorPlan records what a cursor request needs after execution.
type cursorPlan struct {
	forward  bool
	size     int64
	hasAfter bool // forward: after supplied
	hasBack  bool // backward: before supplied
	keyField string
}

// validatePagination checks the shape of a pagination request.
func validatePagination(p queryir.Pagination, maxLimit int64) error {
	switch pg := p.(type) {
	case nil:
		return nil
	case queryir.Offset:
		return validateOffset(pg, maxLimit)
	case *queryir.Offset:
		return validateOffset(*pg, maxLimit)
	case queryir.Cursor:
		return validateCursor(pg, maxLimit)
	case *queryir.Cursor:
		return validateCursor(*pg, maxLimit)
	default:
		return validationErr(ErrCodePagination, "pagination", "unsupported pagination %T", p)
	}
}

func validateOffset(p queryir.Offset, maxLimit int64) error {
	if p.Limit < 0 {
		return validationErr(ErrCodePagination, "pagination.limit", "must not be negative, got %d", p.Limit)
	}
	if p.Offset < 0 {
		return validationErr(ErrCodePagination, "pagination.offset", "must not be negative, got %d", p.Offset)
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		return validationErr(ErrCodePagination, "pagination.limit", "must not exceed %d, got %d", maxLimit, p.Limit)
	}
	return nil
}

func validateCursor(c queryir.Cursor, maxLimit int64) error {
	switch {
	case c.First != nil && c.Last != nil:
		return validationErr(ErrCodePagination, "pagination", "first and last cannot both be set")
	case c.First == nil && c.Last == nil:
		return validationErr(ErrCodePagination, "pagination", "one of first or last is required")
	case c.First != nil && c.Before != nil:
		return validationErr(ErrCodePagination, "pagination.before", "before cannot be combined with first")
	case c.Last != nil && c.After != nil:
		return validationErr(ErrCodePagination, "pagination.after", "after cannot be combined with last")
	}

	name, n := "first", c.First
	if c.Last != nil {
		name, n = "last", c.Last
	}
	if *n <= 0 {
		return validationErr(ErrCodePagination, "pagination."+name, "must be positive, got %d", *n)
	}
	if maxLimit > 0 && *n > maxLimit {
		return validationErr(ErrCodePagination, "pagination."+name, "must not exceed %d, got %d", maxLimit, *n)
	}
	return nil
}

// applyPagination records limit/offset, or the cursor predicate, dominant
// key order and over-fetch limit. It returns a plan for cursor requests.
func applyPagination(ctx *QueryContext, p queryir.Pagination) (*cursorPlan, error) {
	switch pg := p.(type) {
	case nil:
		return nil, nil
	case queryir.Offset:
		applyOffset(ctx, pg)
		return nil, nil
	case *queryir.Offset:
		applyOffset(ctx, *pg)
		return nil, nil
	case queryir.Cursor:
		return applyCursor(ctx, pg)
	case *queryir.Cursor:
		return applyCursor(ctx, *pg)
	default:
		return nil, validationErr(ErrCodePagination, "pagination", "unsupported pagination %T", p)
	}
}

func applyOffset(ctx *QueryContext, p queryir.Offset) {
	ctx.limit = ptr(uint64(p.Limit))
	ctx.offset = ptr(uint64(p.Offset))
}

// applyCursor pages on the primary key:
//
//	forward:  key > :after,  ORDER BY key ASC,  LIMIT first+1
//	backward: key < :before, ORDER BY key DESC, LIMIT last+1
func applyCursor(ctx *QueryContext, c queryir.Cursor) (*cursorPlan, error) {
	keys := ctx.Entity.PrimaryKeyFields()
	if len(keys) != 1 {
		return nil, validationErr(ErrCodePagination, "pagination", "cursor pagination requires a single-column primary key on %s", ctx.Entity.Name)
	}
	key := keys[0]
	col := Column{Alias: ctx.Alias(), Name: key.Column}

	plan := &cursorPlan{forward: c.Forward(), keyField: key.Name}
	dir, op, cursor, path := queryir.Asc, OpGt, c.After, "pagination.after"
	plan.size = deref(c.First)
	if !plan.forward {
		dir, op, cursor, path = queryir.Desc, OpLt, c.Before, "pagination.before"
		plan.size = deref(c.Last)
	}

	if cursor != nil {
		v, err := parseText(key.Type, *cursor)
		if err != nil {
			return nil, validationErr(ErrCodeCursor, path, "invalid cursor: %v", err)
		}
		ctx.AddPredicate(Compare{Column: col, Op: op, Param: ctx.Bind(v)})
		if plan.forward {
			plan.hasAfter = true
		} else {
			plan.hasBack = true
		}
	}

	promoteKey(ctx, col, dir)
	ctx.limit = ptr(uint64(plan.size + 1))
	return plan, nil
}

// trim drops the over-fetched row and, for backward pages, restores
// ascending order. It returns the page info.
func (p *cursorPlan) trim(rows []Row) ([]Row, ConnectionPageInfo) {
	var info ConnectionPageInfo
	extra := int64(len(rows)) > p.size
	if extra {
		rows = rows[:p.size]
	}

	if p.forward {
		info.HasNextPage = extra
		info.HasPreviousPage = p.hasAfter
	} else {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
		info.HasPreviousPage = extra
		info.HasNextPage = p.hasBack
	}

	if len(rows) > 0 {
		start := FormatCursor(rows[0][p.keyField])
		end := FormatCursor(rows[len(rows)-1][p.keyField])
		info.StartCursor = &start
		info.EndCursor = &end
	}
	return rows, info
}

func ptr[T any](v T) *T { return &v }

func deref(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

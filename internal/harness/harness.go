package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/querysql"
	"github.com/roach88/catalogql/internal/schema"
	"github.com/roach88/catalogql/internal/store"
)

// Harness runs the queries of one scenario against a seeded store.
type Harness struct {
	engine *querysql.Engine
}

// sequentialIDs names compiled queries <scenario>-1, <scenario>-2, ...
type sequentialIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *sequentialIDs) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the CUE schema
// 2. Create the tables and seed the fixtures
// 3. Run every query, recording SQL, ids, totals and page info
// 4. Check expect clauses and assertions
//
// The returned error covers setup failures and backend errors; expectation
// mismatches are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	registry, err := schema.LoadDir(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ddl, err := os.ReadFile(scenario.DDL)
	if err != nil {
		return nil, fmt.Errorf("failed to read ddl: %w", err)
	}
	if err := st.ExecScript(ctx, string(ddl)); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	fixtures, err := os.ReadFile(scenario.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	if _, err := st.Seed(ctx, registry, fixtures); err != nil {
		return nil, fmt.Errorf("failed to seed fixtures: %w", err)
	}

	opts := []querysql.EngineOption{querysql.WithIDGenerator(&sequentialIDs{prefix: scenario.Name})}
	if scenario.MaxLimit != 0 {
		opts = append(opts, querysql.WithMaxLimit(scenario.MaxLimit))
	}
	h := &Harness{engine: querysql.New(registry, st, opts...)}

	result := NewResult()
	for _, step := range scenario.Queries {
		qr, err := h.runQuery(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", step.Name, err)
		}
		result.Queries = append(result.Queries, qr)
		for _, msg := range checkExpect(qr, step.Expect) {
			result.AddError(fmt.Sprintf("query %s: %s", step.Name, msg))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Info("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "queries", len(result.Queries))
	return result, nil
}

// runQuery decodes, compiles and executes one step. Requests rejected with
// an error code are recorded in QueryResult.Error; other errors are returned.
func (h *Harness) runQuery(ctx context.Context, step QueryStep) (QueryResult, error) {
	qr := QueryResult{Name: step.Name, IDs: []any{}}

	err := h.execute(ctx, step, &qr)
	if err != nil {
		code, ok := querysql.CodeOf(err)
		if !ok {
			return qr, err
		}
		qr.Error = string(code)
	}
	return qr, nil
}

func (h *Harness) execute(ctx context.Context, step QueryStep, qr *QueryResult) error {
	req, err := queryir.DecodeRequestNode(&step.Request)
	if err != nil {
		return err
	}
	args := querysql.Args{Filter: req.Filter, Sort: req.Sort, Pagination: req.Pagination}

	compiled, err := h.engine.Compile(req.Entity, args)
	if err != nil {
		return err
	}
	if sel, ok := compiled.(*querysql.SelectQuery); ok {
		qr.SQL = sel.Explain()
		qr.Joins = len(sel.Joins())
	}

	ent, _ := h.engine.Registry().Entity(req.Entity)
	key := ent.PrimaryKey[0]

	var pageInfo any
	switch req.Pagination.(type) {
	case queryir.Cursor:
		conn, err := h.engine.FetchConnection(ctx, req.Entity, args)
		if err != nil {
			return err
		}
		for _, edge := range conn.Edges {
			qr.IDs = append(qr.IDs, edge.Node[key])
		}
		if qr.Total, err = h.engine.Count(ctx, req.Entity, req.Filter); err != nil {
			return err
		}
		pageInfo = conn.PageInfo
	default:
		page, err := h.engine.FetchPage(ctx, req.Entity, args)
		if err != nil {
			return err
		}
		for _, row := range page.Nodes {
			qr.IDs = append(qr.IDs, row[key])
		}
		qr.Total = page.PageInfo.TotalCount
		pageInfo = page.PageInfo
	}

	qr.PageInfo, err = toMap(pageInfo)
	return err
}

// toMap converts a page info struct to a map keyed by its JSON names.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// checkExpect compares a query result with its expect clause.
func checkExpect(qr QueryResult, exp *ExpectClause) []string {
	var errs []string

	if exp == nil {
		if qr.Error != "" {
			errs = append(errs, fmt.Sprintf("unexpected error %s", qr.Error))
		}
		return errs
	}

	if exp.Error != "" || qr.Error != "" {
		if exp.Error != qr.Error {
			errs = append(errs, fmt.Sprintf("expected error %q, got %q", exp.Error, qr.Error))
		}
		return errs
	}

	if exp.IDs != nil && !idsEqual(exp.IDs, qr.IDs) {
		errs = append(errs, fmt.Sprintf("expected ids %v, got %v", exp.IDs, qr.IDs))
	}
	if exp.Total != nil && *exp.Total != qr.Total {
		errs = append(errs, fmt.Sprintf("expected total %d, got %d", *exp.Total, qr.Total))
	}
	for key, want := range exp.PageInfo {
		got, ok := qr.PageInfo[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("page_info has no key %q", key))
			continue
		}
		if !valuesEqual(got, want) {
			errs = append(errs, fmt.Sprintf("expected page_info.%s %v, got %v", key, want, got))
		}
	}
	return errs
}

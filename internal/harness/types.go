package harness

// QueryResult is what one scenario query produced.
type QueryResult struct {
	Name string `json:"name"`

	// SQL is the compiled fetch statement with named parameters. Empty when
	// the request was rejected.
	SQL string `json:"sql,omitempty"`

	// Joins is the number of joins in the compiled query.
	Joins int `json:"joins"`

	// IDs are the primary keys of the returned rows, in order.
	IDs []any `json:"ids"`

	// Total is the count over the request filter.
	Total int64 `json:"total"`

	// PageInfo holds the page info of the response, keyed by its JSON names.
	PageInfo map[string]any `json:"page_info,omitempty"`

	// Error is the error code when the request was rejected.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Queries holds one entry per scenario query, in order.
	Queries []QueryResult `json:"queries"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryResult{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Query returns the result of the named query.
func (r *Result) Query(name string) (*QueryResult, bool) {
	for i := range r.Queries {
		if r.Queries[i].Name == name {
			return &r.Queries[i], true
		}
	}
	return nil, false
}

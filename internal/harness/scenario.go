package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a query scenario: a seeded database and the requests to
// run against it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the directory holding the CUE entity definitions.
	Schema string `yaml:"schema"`

	// DDL is a SQL script creating the tables.
	DDL string `yaml:"ddl"`

	// Fixtures is a YAML file with the rows to seed.
	Fixtures string `yaml:"fixtures"`

	// MaxLimit overrides the engine page-size cap. Zero keeps the default.
	MaxLimit int64 `yaml:"max_limit,omitempty"`

	// Queries run in order against the same database.
	Queries []QueryStep `yaml:"queries"`

	// Assertions relate compiled queries and their results.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// QueryStep is one request and what it must produce.
type QueryStep struct {
	Name string `yaml:"name"`

	// Request is the raw request document (entity, filter, sort,
	// pagination). It stays a node so key order survives decoding.
	Request yaml.Node `yaml:"request"`

	// Expect is optional; without it the step only has to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a request. Unset fields are
// not checked.
type ExpectClause struct {
	// IDs are the primary keys of the returned rows, in order.
	IDs []any `yaml:"ids,omitempty"`

	// Total is the count over the same filter.
	Total *int64 `yaml:"total,omitempty"`

	// PageInfo is a subset match over the page info keys (totalCount,
	// hasNextPage, hasPreviousPage, startCursor, endCursor).
	PageInfo map[string]any `yaml:"page_info,omitempty"`

	// Error is the expected error code, e.g. E201. When set the request
	// must fail with exactly this code.
	Error string `yaml:"error,omitempty"`
}

// Assertion relates one or more queries of the scenario.
type Assertion struct {
	// Type is one of sql_contains, join_count, same_rows.
	Type string `yaml:"type"`

	// Query names the query (sql_contains, join_count).
	Query string `yaml:"query,omitempty"`

	// Queries names the queries compared by same_rows.
	Queries []string `yaml:"queries,omitempty"`

	// Text is the SQL fragment looked for by sql_contains.
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of joins for join_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSQLContains = "sql_contains"
	AssertJoinCount   = "join_count"
	AssertSameRows    = "same_rows"
)

// LoadScenario reads and parses a scenario YAML file, resolving schema, ddl
// and fixtures paths relative to the file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. Relative paths are joined to basePath
// when it is not empty.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		for _, p := range []*string{&scenario.Schema, &scenario.DDL, &scenario.Fixtures} {
			if *p != "" && !filepath.IsAbs(*p) {
				*p = filepath.Join(basePath, *p)
			}
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	for _, f := range []struct{ key, path string }{
		{"schema", s.Schema},
		{"ddl", s.DDL},
		{"fixtures", s.Fixtures},
	} {
		if f.path == "" {
			return fmt.Errorf("%s is required", f.key)
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			return fmt.Errorf("%s not found: %s", f.key, f.path)
		}
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if names[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		names[q.Name] = true
		if q.Request.Kind != yaml.MappingNode {
			return fmt.Errorf("queries[%d]: request must be a mapping", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, names); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, names map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSQLContains, AssertJoinCount:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for %s", index, a.Type)
		}
		if !names[a.Query] {
			return fmt.Errorf("assertions[%d]: unknown query %q", index, a.Query)
		}
		if a.Type == AssertSQLContains && a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for sql_contains", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for join_count", index)
		}
	case AssertSameRows:
		if len(a.Queries) < 2 {
			return fmt.Errorf("assertions[%d]: same_rows needs at least two queries", index)
		}
		for _, name := range a.Queries {
			if !names[name] {
				return fmt.Errorf("assertions[%d]: unknown query %q", index, name)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

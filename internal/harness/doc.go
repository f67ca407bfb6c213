// Package harness runs catalogql query scenarios: YAML files that pair
// request documents with the rows, totals, page info or error codes they
// must produce against a seeded database.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: ../../schemas            # CUE entity definitions (directory)
//	ddl: ../sql/sqlite.sql           # statements creating the tables
//	fixtures: ../fixtures.yaml       # rows to seed
//	queries:
//	  - name: ghibli_by_year
//	    request:
//	      entity: Movie
//	      filter: { studio: { name: { eq: Ghibli } } }
//	      sort: { year: ASC }
//	      pagination: { limit: 2, offset: 0 }
//	    expect:
//	      ids: [10, 3]
//	      total: 3
//	      page_info: { hasNextPage: true }
//	  - name: bad_operator
//	    request:
//	      entity: Movie
//	      filter: { year: { like: "20" } }
//	    expect:
//	      error: E203
//	assertions:
//	  - type: join_count
//	    query: ghibli_by_year
//	    count: 1
//	  - type: sql_contains
//	    query: ghibli_by_year
//	    text: GROUP BY
//	  - type: same_rows
//	    queries: [ghibli_by_year, other_query]
//
// Paths are relative to the scenario file. The request block keeps its key
// order, so filter groups and sort priority read exactly as written.
//
// # Assertion Types
//
//   - sql_contains: the compiled SQL of a query contains text
//   - join_count: the compiled query has exactly count joins
//   - same_rows: every listed query returned the same ids in the same order
//
// # Determinism
//
// Each scenario runs in a fresh in-memory SQLite database with fixed query
// ids, so compiled SQL and results are stable for golden comparison.
package harness

// Package querysql compiles filter, sort and pagination trees into joined,
// deterministically ordered, deduplicated queries against a Backend.
//
// One call to the Engine owns one QueryContext: a JoinRegistry, the
// parameter allocator, and the accumulated predicates, order entries and
// distinct columns. Nothing is shared between calls, so concurrent requests
// need no coordination.
//
// Compilation order for FetchMany:
//
//  1. sort tree → order entries, then primary-key tie-break (sort.go)
//  2. distinct set derived from the same tree (distinct.go)
//  3. filter tree → one predicate under AND scope (filter.go)
//  4. pagination → limit/offset or cursor predicate and dominant key (paginate.go)
//  5. distinct set asserted to be a prefix of the order list (engine.go)
//
// Joins are requested through the JoinRegistry, which emits each relation
// path to the backend exactly once, in first-use order.
//
// SelectQuery is the SQL Backend query: it records instructions and renders
// them with squirrel for Postgres or SQLite.
package querysql

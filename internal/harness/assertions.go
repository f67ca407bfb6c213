package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Compiled SQL of the query involved, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "  SQL: %s\n", e.SQL)
	}
	return buf.String()
}

// assertSQLContains checks that the compiled SQL of a query contains a
// fragment.
func assertSQLContains(qr *QueryResult, assertion Assertion) error {
	if strings.Contains(qr.SQL, assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSQLContains,
		Expected: fmt.Sprintf("SQL of %s to contain %q", qr.Name, assertion.Text),
		Actual:   "not found",
		SQL:      qr.SQL,
	}
}

// assertJoinCount checks the number of joins of a compiled query.
func assertJoinCount(qr *QueryResult, assertion Assertion) error {
	if qr.Joins == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertJoinCount,
		Expected: fmt.Sprintf("%s to have %d join(s)", qr.Name, assertion.Count),
		Actual:   fmt.Sprintf("%d join(s)", qr.Joins),
		SQL:      qr.SQL,
	}
}

// assertSameRows checks that every listed query returned the same ids in the
// same order.
func assertSameRows(result *Result, assertion Assertion) error {
	first, ok := result.Query(assertion.Queries[0])
	if !ok {
		return fmt.Errorf("unknown query %q", assertion.Queries[0])
	}
	for _, name := range assertion.Queries[1:] {
		other, ok := result.Query(name)
		if !ok {
			return fmt.Errorf("unknown query %q", name)
		}
		if !idsEqual(first.IDs, other.IDs) {
			return &AssertionError{
				Type:     AssertSameRows,
				Expected: fmt.Sprintf("%s ids %v", first.Name, first.IDs),
				Actual:   fmt.Sprintf("%s ids %v", other.Name, other.IDs),
			}
		}
	}
	return nil
}

// idsEqual compares id lists element-wise. Fixture ids decode as int while
// rows carry int64, so elements compare by their printed form.
func idsEqual(expected, actual []any) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if !valuesEqual(actual[i], expected[i]) {
			return false
		}
	}
	return true
}

// valuesEqual compares two scalar values across numeric representations.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSQLContains, AssertJoinCount:
			qr, ok := result.Query(assertion.Query)
			switch {
			case !ok:
				err = fmt.Errorf("assertion[%d]: unknown query %q", i, assertion.Query)
			case qr.Error != "":
				err = fmt.Errorf("assertion[%d]: query %s failed with %s", i, qr.Name, qr.Error)
			case assertion.Type == AssertSQLContains:
				err = assertSQLContains(qr, assertion)
			default:
				err = assertJoinCount(qr, assertion)
			}
		case AssertSameRows:
			err = assertSameRows(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

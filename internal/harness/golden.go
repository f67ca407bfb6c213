package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the compiled SQL and outcome of every query in a stable
// text form:
//
//	-- ghibli_by_year
//	SELECT ... LIMIT 2 OFFSET 0
//	ids: [10 3]
//	total: 3
func Snapshot(result *Result) []byte {
	var buf strings.Builder
	for i, qr := range result.Queries {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "-- %s\n", qr.Name)
		if qr.Error != "" {
			fmt.Fprintf(&buf, "error: %s\n", qr.Error)
			continue
		}
		fmt.Fprintf(&buf, "%s\n", qr.SQL)
		fmt.Fprintf(&buf, "ids: %v\n", qr.IDs)
		fmt.Fprintf(&buf, "total: %d\n", qr.Total)
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass; goldie fails the test
// on a snapshot mismatch.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}

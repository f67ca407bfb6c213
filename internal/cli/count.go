package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// CountResult is the JSON payload of the count command.
type CountResult struct {
	Entity string `json:"entity"`
	Count  int64  `json:"count"`
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <request-file>",
		Short: "Count the rows matching a request filter",
		Long: `Count the rows matching the filter of a request file.

Sort and pagination in the request are ignored. The count is taken over the
joined rows without deduplication, so filters through to-many relations can
report more rows than query returns.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCount(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	req, err := ReadRequest(path, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, err, ErrCodeReadFailed)
	}
	if req.Sort != nil || req.Pagination != nil {
		formatter.VerboseLog("count ignores sort and pagination")
	}

	registry, err := LoadRegistry(opts)
	if err != nil {
		return fail(formatter, err, ErrCodeSchema)
	}
	st, err := OpenStore(opts)
	if err != nil {
		return fail(formatter, err, ErrCodeDatabase)
	}
	defer st.Close()

	eng, err := NewEngine(opts, registry, st)
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := eng.Count(ctx, req.Entity, req.Filter)
	if err != nil {
		return fail(formatter, err, ErrCodeDatabase)
	}

	if formatter.Format == "json" {
		return formatter.Success(CountResult{Entity: req.Entity, Count: n})
	}
	fmt.Fprintln(formatter.Writer, n)
	return nil
}

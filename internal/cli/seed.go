package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	DDL string // SQL script run before inserting
}

// SeedResult is the JSON payload of the seed command.
type SeedResult struct {
	Rows int `json:"rows"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <fixtures-file>",
		Short: "Load fixture rows into the database",
		Long: `Insert the rows of a YAML fixtures file into the configured database.

Top-level keys are entity names (rows use field names) or table names
(rows use column names, e.g. junction tables). All rows are inserted in one
transaction. --ddl runs a SQL script first, typically to create the tables.

Examples:
  catalogql seed fixtures.yaml --ddl schema.sql
  catalogql seed fixtures.yaml --driver pgx --db postgres://localhost/catalog`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DDL, "ddl", "", "SQL script to run before seeding")

	return cmd
}

func runSeed(opts *SeedOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, fmt.Errorf("read fixtures: %w", err), ErrCodeReadFailed)
	}
	registry, err := LoadRegistry(opts.RootOptions)
	if err != nil {
		return fail(formatter, err, ErrCodeSchema)
	}
	st, err := OpenStore(opts.RootOptions)
	if err != nil {
		return fail(formatter, err, ErrCodeDatabase)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.DDL != "" {
		script, err := os.ReadFile(opts.DDL)
		if err != nil {
			return fail(formatter, fmt.Errorf("read ddl: %w", err), ErrCodeReadFailed)
		}
		if err := st.ExecScript(ctx, string(script)); err != nil {
			return fail(formatter, err, ErrCodeDatabase)
		}
		formatter.VerboseLog("Applied %s", opts.DDL)
	}

	n, err := st.Seed(ctx, registry, data)
	if err != nil {
		return fail(formatter, err, ErrCodeDatabase)
	}

	if formatter.Format == "json" {
		return formatter.Success(SeedResult{Rows: n})
	}
	fmt.Fprintf(formatter.Writer, "✓ Seeded %d rows\n", n)
	return nil
}

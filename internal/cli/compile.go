package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/catalogql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Dialect string // postgres | sqlite; empty = dialect of the configured driver
	Explain bool   // named parameters instead of placeholders
	Output  string // output file path
}

// CompilationResult holds the statements compiled for one request.
type CompilationResult struct {
	Entity    string `json:"entity"`
	Dialect   string `json:"dialect"`
	SQL       string `json:"sql"`
	Args      []any  `json:"args"`
	CountSQL  string `json:"count_sql"`
	CountArgs []any  `json:"count_args"`
	Explain   string `json:"explain"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request-file>",
		Short: "Compile a request to SQL without running it",
		Long: `Compile a request file to the fetch and count statements the engine
would run. No database connection is made.

The dialect defaults to the one of the configured driver.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect (postgres|sqlite)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print statements with named parameters")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dialect, err := opts.dialect()
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}
	req, err := ReadRequest(path, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, err, ErrCodeReadFailed)
	}
	registry, err := LoadRegistry(opts.RootOptions)
	if err != nil {
		return fail(formatter, err, ErrCodeSchema)
	}

	eng, err := NewEngine(opts.RootOptions, registry, querysql.DryRunBackend{Dialect: dialect})
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}
	formatter.VerboseLog("Compiling %s for %s", req.Entity, dialect)

	result, err := compileRequest(eng, req.Entity, requestArgs(req), dialect)
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.SQL+";\n"), 0o644); err != nil {
			return fail(formatter, fmt.Errorf("write %s: %w", opts.Output, err), ErrCodeWriteFailed)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if opts.Explain {
		fmt.Fprintln(w, result.Explain)
		return nil
	}
	fmt.Fprintln(w, result.SQL)
	fmt.Fprintf(w, "args: %v\n", result.Args)
	fmt.Fprintln(w)
	fmt.Fprintln(w, result.CountSQL)
	fmt.Fprintf(w, "args: %v\n", result.CountArgs)
	return nil
}

// dialect resolves --dialect, falling back to the configured driver.
func (o *CompileOptions) dialect() (querysql.Dialect, error) {
	if o.Dialect != "" {
		return querysql.ParseDialect(o.Dialect)
	}
	driver, _, err := o.database()
	if err != nil {
		return "", err
	}
	return querysql.DialectForDriver(driver)
}

// compileRequest renders the fetch and count statements of one request.
func compileRequest(eng *querysql.Engine, entity string, args querysql.Args, dialect querysql.Dialect) (*CompilationResult, error) {
	fetch, err := eng.Compile(entity, args)
	if err != nil {
		return nil, err
	}
	count, err := eng.CompileCount(entity, args.Filter)
	if err != nil {
		return nil, err
	}

	fq, ok := fetch.(*querysql.SelectQuery)
	if !ok {
		return nil, fmt.Errorf("compile: unexpected query type %T", fetch)
	}
	cq, ok := count.(*querysql.SelectQuery)
	if !ok {
		return nil, fmt.Errorf("compile: unexpected query type %T", count)
	}

	result := &CompilationResult{Entity: entity, Dialect: string(dialect), Explain: fq.Explain()}
	if result.SQL, result.Args, err = fq.ToSQL(); err != nil {
		return nil, err
	}
	if result.CountSQL, result.CountArgs, err = cq.ToCountSQL(); err != nil {
		return nil, err
	}
	if result.Args == nil {
		result.Args = []any{}
	}
	if result.CountArgs == nil {
		result.CountArgs = []any{}
	}
	return result, nil
}

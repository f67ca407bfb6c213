package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/catalogql/internal/querysql"
	"github.com/roach88/catalogql/internal/schema"
)

// ValidationIssue is one problem found by validate.
type ValidationIssue struct {
	File    string `json:"file,omitempty"`
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Entities []string          `json:"entities,omitempty"`
	Requests int               `json:"requests"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [request-file...]",
		Short: "Validate the schema and request files without a database",
		Long: `Validate the CUE entity schema and, optionally, request files.

Each request is compiled against the schema without touching a database, so
unknown fields, bad operators, malformed operands and invalid pagination
are reported with their error codes.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	dir, err := opts.schemaDir()
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}
	if cueFiles, err := FindCUEFiles(dir); err == nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", len(cueFiles), dir)
	}

	registry, err := LoadRegistry(opts)
	if err != nil {
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) {
			issue := ValidationIssue{Code: ErrCodeSchema, Path: loadErr.Path, Message: loadErr.Message}
			if loadErr.Pos.IsValid() {
				issue.File = loadErr.Pos.Filename()
				issue.Line = loadErr.Pos.Line()
			}
			return outputValidationErrors(formatter, ValidationResult{Errors: []ValidationIssue{issue}})
		}
		return fail(formatter, err, ErrCodeSchema)
	}

	driver, _, err := opts.database()
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}
	dialect, err := querysql.DialectForDriver(driver)
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}
	eng, err := NewEngine(opts, registry, querysql.DryRunBackend{Dialect: dialect})
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}

	result := ValidationResult{Valid: true, Entities: registry.Names(), Requests: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Validating request: %s", file)
		if issue := validateRequest(eng, file, cmd); issue != nil {
			result.Errors = append(result.Errors, *issue)
		}
	}

	if len(result.Errors) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateRequest compiles one request file. It returns nil when the
// request compiles.
func validateRequest(eng *querysql.Engine, file string, cmd *cobra.Command) *ValidationIssue {
	req, err := ReadRequest(file, cmd.InOrStdin())
	if err == nil {
		_, err = eng.Compile(req.Entity, requestArgs(req))
	}
	if err == nil {
		return nil
	}

	issue := &ValidationIssue{File: file, Code: ErrCodeReadFailed, Message: err.Error()}
	var ve *querysql.ValidationError
	if errors.As(err, &ve) {
		issue.Code, issue.Path, issue.Message = string(ve.Code), ve.Path, ve.Message
	} else if code, ok := querysql.CodeOf(err); ok {
		issue.Code = string(code)
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d entities)\n", len(result.Entities))
	if result.Requests > 0 {
		fmt.Fprintf(formatter.Writer, "✓ %d request(s) valid\n", result.Requests)
	}
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range errs {
		switch {
		case e.File != "" && e.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s:%d\n", e.File, e.Line)
		case e.File != "":
			fmt.Fprintf(formatter.Writer, "%s\n", e.File)
		}
		if e.Path != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", e.Code, e.Path, e.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

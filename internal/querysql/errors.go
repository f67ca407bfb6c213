package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/catalogql/internal/queryir"
)

// ErrorCode identifies a class of validation error.
type ErrorCode string

const (
	ErrCodeRequest      ErrorCode = "E200" // request document could not be decoded
	ErrCodeUnknownField ErrorCode = "E201" // name is neither a field nor a relation
	ErrCodeRelation     ErrorCode = "E202" // relation used as a field or vice versa
	ErrCodeOperator     ErrorCode = "E203" // unknown operator or operator not valid for the field type
	ErrCodeOperand      ErrorCode = "E204" // operand has the wrong shape or type
	ErrCodeEntity       ErrorCode = "E205" // unknown entity
	ErrCodePagination   ErrorCode = "E210" // invalid pagination request
	ErrCodeCursor       ErrorCode = "E211" // cursor cannot be parsed for the primary key
)

// ValidationError reports a request the engine refuses to compile. It is
// always returned before any backend call.
type ValidationError struct {
	Code    ErrorCode
	Path    string // dotted location, e.g. "studio.name.eq" or "pagination.first"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

func validationErr(code ErrorCode, path, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CodeOf returns the code carried by err: the ValidationError code, or
// ErrCodeRequest for a malformed request document.
func CodeOf(err error) (ErrorCode, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code, true
	}
	var de *queryir.DecodeError
	if errors.As(err, &de) {
		return ErrCodeRequest, true
	}
	return "", false
}

// ErrDistinctPrefix means the derived distinct columns are not a prefix of
// the order-by list. This indicates a compiler defect, not bad input.
var ErrDistinctPrefix = errors.New("distinct columns are not a prefix of the order-by columns")

// ErrNoExecution is returned by DryRunBackend when asked to execute.
var ErrNoExecution = errors.New("dry-run backend cannot execute queries")

package errors

import (
	"fmt"
)

// AppError represents a structured pipeline error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError carrying the same code, so that
// errors.Is(err, ErrConfiguration) matches every configuration failure.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context, keeping its code
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the code of the outermost AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Error codes
const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeMissingColumn = "MISSING_COLUMN"
	CodeDateParse     = "DATE_PARSE_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternalError = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching; they compare by code only.
var (
	ErrConfiguration = New(CodeConfiguration, "configuration error")
	ErrMissingColumn = New(CodeMissingColumn, "missing column")
	ErrDateParse     = New(CodeDateParse, "date parse error")
	ErrInvalidInput  = New(CodeInvalidInput, "invalid input")
)

// ConfigurationError reports an invalid parameter or an unusable target/source column.
func ConfigurationError(format string, args ...interface{}) *AppError {
	return Newf(CodeConfiguration, format, args...)
}

// MissingColumnError reports a required feature absent at selection time.
func MissingColumnError(column string) *AppError {
	return Newf(CodeMissingColumn, "column %q not found in table", column)
}

// DateParseError reports an unparseable or missing timestamp.
func DateParseError(column string, row int, cause error) *AppError {
	return &AppError{
		Code:    CodeDateParse,
		Message: fmt.Sprintf("cannot parse %q at row %d", column, row),
		Cause:   cause,
	}
}

// InvalidInput reports malformed input data.
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

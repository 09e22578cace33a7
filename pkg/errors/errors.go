package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryExtraction     ErrorCategory = "extraction"
	CategoryParse          ErrorCategory = "parse"
	CategoryLedgerSchema   ErrorCategory = "ledger_schema"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryReport         ErrorCategory = "report"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Extraction errors
	CodeUnreadablePDF ErrorCode = "unreadable_pdf"
	CodeEmptyPDF      ErrorCode = "empty_pdf"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Ledger schema errors
	CodeMissingColumn  ErrorCode = "missing_column"
	CodeTooFewColumns  ErrorCode = "too_few_columns"
	CodeUnreadableBook ErrorCode = "unreadable_workbook"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Reconciliation errors
	CodeOriginMismatch  ErrorCode = "origin_mismatch"
	CodeProcessingError ErrorCode = "processing_error"

	// Report errors
	CodeRenderFailed      ErrorCode = "render_failed"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ConciliadorError is the base error type for all application errors
type ConciliadorError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ConciliadorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ConciliadorError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ConciliadorError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryExtraction, CategoryParse, CategoryValidation:
		return 3
	case CategoryLedgerSchema:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryReport, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ConciliadorError) WithContext(key string, value interface{}) *ConciliadorError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ConciliadorError) WithSuggestion(suggestion string) *ConciliadorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ConciliadorError
func New(category ErrorCategory, code ErrorCode, message string) *ConciliadorError {
	return &ConciliadorError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ConciliadorError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ConciliadorError {
	if err == nil {
		return nil
	}

	return &ConciliadorError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "verify the file integrity and try using a backup copy"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ExtractionError creates a PDF extraction error
func ExtractionError(code ErrorCode, detail string, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeUnreadablePDF:
		message = fmt.Sprintf("could not read PDF document: %s", detail)
		suggestion = "verify the file is a valid, unencrypted PDF"
	case CodeEmptyPDF:
		message = fmt.Sprintf("PDF document contains no extractable content: %s", detail)
		suggestion = "scanned statements without a text layer are not supported"
	default:
		message = fmt.Sprintf("extraction error: %s", detail)
		suggestion = "verify the statement document and try again"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryExtraction, code, message)
	} else {
		result = New(CategoryExtraction, code, message)
	}

	return result.WithSuggestion(suggestion)
}

// LedgerSchemaError creates the fatal error for an unusable ledger layout.
// The offending column headers are carried in the message and context so
// the caller can show exactly what was found.
func LedgerSchemaError(code ErrorCode, file string, columns []string, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeTooFewColumns:
		message = fmt.Sprintf("ledger file %s has fewer than 3 columns: %s", file, FormatColumns(columns))
		suggestion = "the ledger needs at least date, concept and amount columns"
	case CodeMissingColumn:
		message = fmt.Sprintf("could not resolve date and amount columns in ledger file %s, found: %s", file, FormatColumns(columns))
		suggestion = "expected headers FECHA plus MOVIMIENTO or VALOR (case and accents ignored)"
	case CodeUnreadableBook:
		message = fmt.Sprintf("could not open ledger workbook: %s", file)
		suggestion = "verify the file is a valid xlsx workbook or CSV file"
	default:
		message = fmt.Sprintf("ledger schema error in file %s", file)
		suggestion = "check the ledger file structure"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryLedgerSchema, code, message)
	} else {
		result = New(CategoryLedgerSchema, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("columns", columns)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are numeric, optionally with $ signs, commas or parentheses"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use day-first dates (dd/mm/yyyy) or YYYY/MM/DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ReconciliationError creates a reconciliation-related error
func ReconciliationError(code ErrorCode, operation string, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeOriginMismatch:
		message = fmt.Sprintf("table origin mismatch during %s", operation)
		suggestion = "pass the ledger table first and the extract table second"
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "check the input data and try again"
	default:
		message = fmt.Sprintf("reconciliation error during %s", operation)
		suggestion = "review the data and configuration"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryReconciliation, code, message)
	} else {
		result = New(CategoryReconciliation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ReportError creates a report generation error
func ReportError(code ErrorCode, detail string, err error) *ConciliadorError {
	var message string
	var suggestion string

	switch code {
	case CodeRenderFailed:
		message = fmt.Sprintf("failed to render report: %s", detail)
		suggestion = "check the output destination is writable"
	case CodeUnsupportedFormat:
		message = fmt.Sprintf("invalid report format: %s", detail)
		suggestion = "valid formats are xlsx, json and console"
	default:
		message = fmt.Sprintf("report error: %s", detail)
		suggestion = "check the report configuration"
	}

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryReport, code, message)
	} else {
		result = New(CategoryReport, code, message)
	}

	return result.WithSuggestion(suggestion)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ConciliadorError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	suggestion := "this is likely a bug, please report it with the error details"

	var result *ConciliadorError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// Utility functions

// IsConciliadorError checks if an error is a ConciliadorError
func IsConciliadorError(err error) bool {
	_, ok := err.(*ConciliadorError)
	return ok
}

// AsConciliadorError extracts a ConciliadorError from an error chain
func AsConciliadorError(err error) (*ConciliadorError, bool) {
	var conciliadorErr *ConciliadorError
	if errors.As(err, &conciliadorErr) {
		return conciliadorErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a ConciliadorError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ConciliadorError {
	if err == nil {
		return nil
	}

	if conciliadorErr, ok := AsConciliadorError(err); ok {
		return conciliadorErr
	}

	return Wrap(err, category, code, message)
}

// FormatColumns renders a header list for error messages
func FormatColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

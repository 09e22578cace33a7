package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang-conciliation-service/pkg/errors"
	"golang-conciliation-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	// Log the error
	h.logger.WithError(err).Error("Command failed")

	// Handle ConciliadorError with detailed information
	if conciliadorErr, ok := errors.AsConciliadorError(err); ok {
		return h.handleConciliadorError(conciliadorErr)
	}

	// Handle other error types
	return h.handleGenericError(err)
}

// handleConciliadorError handles ConciliadorError with detailed context
func (h *CLIErrorHandler) handleConciliadorError(err *errors.ConciliadorError) int {
	// Print the main error message
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	// Add context information if available
	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	// Add suggestion if available
	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	// Add category-specific help
	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	// Show underlying error in verbose mode
	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-ConciliadorError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	// Check for common system errors and provide better messages
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(os.Stderr, "Error: Insufficient disk space\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	// Generic error handling
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, run with the --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file`

	case errors.CategoryExtraction:
		return `PDF extraction help:
• Verify the file is a valid PDF and not password protected
• Scanned statements without a text layer cannot be read
• Try exporting the statement again from your bank portal`

	case errors.CategoryParse:
		return `Parse error help:
• Check that the statement layout matches a supported bank format
• Run 'conciliador extract' to inspect what was read from the PDF
• Ensure the file uses UTF-8 encoding if it is a CSV`

	case errors.CategoryLedgerSchema:
		return `Ledger format help:
• The ledger needs FECHA and MOVIMIENTO (or VALOR) columns
• An optional concept column may be named CONCEPTO, DESCRIPCION or DETALLE
• Use --sheet to pick the right workbook sheet
• Remove decorative rows above the column headers`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify dates use the dd/mm/yyyy format
• Ensure amounts are numbers without stray characters`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'conciliador reconcile --help' to see all available options
• Try running with default settings first`

	case errors.CategoryReconciliation:
		return `Reconciliation error help:
• Check data quality in your input files
• Verify that both files cover the same statement period
• Run 'conciliador extract' to confirm the statement was read correctly`

	case errors.CategoryReport:
		return `Report error help:
• Check that the output directory exists and is writable
• Close the output workbook if it is open in another program
• Try a different output format (--output-format json)`

	default:
		return `For more help:
• Use 'conciliador --help' for general help
• Use 'conciliador reconcile --help' for command-specific help
• Check the documentation for detailed examples`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}

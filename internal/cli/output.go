package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/gclql/internal/parser"
	"github.com/roach88/gclql/internal/querysql"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query rejected or scenarios failed
	ExitCommandError = 2 // Command error (bad config, missing schema, etc.)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeConfig           = "E002" // Configuration could not be loaded
	ErrCodeSchema           = "E003" // Schema could not be loaded or discovered
	ErrCodeStore            = "E004" // Snapshot store error
	ErrCodeNotFound         = "E005" // Path or snapshot not found
	ErrCodeInvalidField     = "E101" // Unknown field
	ErrCodeInvalidOperation = "E102" // Operator does not fit the field
	ErrCodeInvalidQuery     = "E103" // Query could not be understood
	ErrCodeInvalidSort      = "E104" // Bad sort order
	ErrCodeSyntax           = "E105" // Parse error (parse command only)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// queryErrorDetails is the JSON detail payload for rejected queries.
type queryErrorDetails struct {
	Type        string   `json:"type"`
	Field       string   `json:"field,omitempty"`
	Operation   string   `json:"operation,omitempty"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ReportQueryError writes a planning or parse error and returns the
// ExitError the command should return. Errors that are not about the
// query itself become command errors.
func (f *OutputFormatter) ReportQueryError(err error) error {
	if qe, ok := querysql.AsError(err); ok {
		code := ErrCodeInvalidQuery
		switch qe.Type {
		case querysql.ErrTypeInvalidField:
			code = ErrCodeInvalidField
		case querysql.ErrTypeInvalidOperation:
			code = ErrCodeInvalidOperation
		}
		if werr := f.Error(code, qe.UserMessage, queryErrorDetails{
			Type:        string(qe.Type),
			Field:       qe.FieldName,
			Operation:   qe.Operation,
			Message:     qe.Message,
			Suggestions: qe.Suggestions,
		}); werr != nil {
			return werr
		}
		return WrapExitError(ExitFailure, "query rejected", err)
	}

	var se *parser.SyntaxError
	if errors.As(err, &se) {
		if werr := f.Error(ErrCodeSyntax, se.Error(), map[string]int{"pos": se.Pos}); werr != nil {
			return werr
		}
		return WrapExitError(ExitFailure, "query did not parse", err)
	}

	if errors.Is(err, querysql.ErrInvalidSortOrder) {
		if werr := f.Error(ErrCodeInvalidSort, err.Error(), nil); werr != nil {
			return werr
		}
		return WrapExitError(ExitFailure, "invalid sort", err)
	}

	if werr := f.Error(ErrCodeGeneric, err.Error(), nil); werr != nil {
		return werr
	}
	return WrapExitError(ExitCommandError, "command failed", err)
}

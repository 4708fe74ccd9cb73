package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/flexiflow/ferrors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure (invalid config, rejected message, etc.)
	ExitCommandError = 2 // Command error (missing config, unreadable files, etc.)
)

// ExitError carries a specific exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure when the error carries no explicit code.
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
	ErrWriter io.Writer
}

// Response is the standard JSON envelope for CLI output.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError is the error structure inside a JSON response.
type ResponseError struct {
	Kind    string         `json:"kind,omitempty"`
	Message string         `json:"message"`
	Why     string         `json:"why,omitempty"`
	Fix     string         `json:"fix,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// Success emits data in the configured format. In text mode the data's
// default formatting is printed; pass a string for full control.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Failure emits err in the configured format. Structured errors keep their
// what/why/fix/context parts in JSON mode and print their full formatted
// text in text mode.
func (f *OutputFormatter) Failure(err error) error {
	if f.Format == "json" {
		respErr := &ResponseError{Message: err.Error()}
		if fe, ok := ferrors.As(err); ok {
			respErr.Kind = string(fe.Kind)
			respErr.Message = fe.What
			respErr.Why = fe.Why
			respErr.Fix = fe.Fix
			if len(fe.Context) > 0 {
				respErr.Context = make(map[string]any, len(fe.Context))
				for _, item := range fe.Context {
					respErr.Context[item.Key] = item.Value
				}
			}
		}
		return json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: respErr})
	}

	if fe, ok := ferrors.As(err); ok {
		_, werr := fmt.Fprintln(f.ErrWriter, fe.Format())
		return werr
	}
	_, werr := fmt.Fprintln(f.ErrWriter, "Error:", err)
	return werr
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/HerbHall/galleria/internal/auth"
	"github.com/HerbHall/galleria/internal/backup"
	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/query"
	"github.com/HerbHall/galleria/internal/services"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (API error, conflict, missing artwork)
	ExitCommandError = 2 // Bad flags, arguments or query values
	ExitAuth         = 3 // Not signed in, session expired or rejected credentials
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeAuth        = "E_AUTH"
	ErrCodeInput       = "E_INPUT"
	ErrCodeNotFound    = "E_NOT_FOUND"
	ErrCodeConflict    = "E_CONFLICT"
	ErrCodeForbidden   = "E_FORBIDDEN"
	ErrCodeUnavailable = "E_UNAVAILABLE"
	ErrCodeUsage       = "E_USAGE"
	ErrCodeFailure     = "E_FAILURE"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code
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

// errorClass maps sentinel errors to an error code and exit code.
type errorClass struct {
	code    string
	exit    int
	targets []error
}

var errorClasses = []errorClass{
	{ErrCodeAuth, ExitAuth, []error{
		auth.ErrNotSignedIn, auth.ErrSessionExpired, auth.ErrInvalidCredentials,
		auth.ErrInvalidToken, gallery.ErrSignInRequired, marketplace.ErrUnauthorized,
	}},
	{ErrCodeInput, ExitCommandError, []error{
		query.ErrInvalidQuery, gallery.ErrUnknownCategory, gallery.ErrInvalidArtwork,
		marketplace.ErrInvalid, auth.ErrInvalidEmail, auth.ErrWeakPassword, auth.ErrNameRequired,
	}},
	{ErrCodeNotFound, ExitFailure, []error{
		marketplace.ErrNotFound, gallery.ErrArtistNotFound, services.ErrNotFound,
	}},
	{ErrCodeConflict, ExitFailure, []error{
		gallery.ErrAlreadyLiked, gallery.ErrAlreadyFavorited, auth.ErrEmailExists,
		marketplace.ErrAlreadyExists, backup.ErrExists,
	}},
	{ErrCodeForbidden, ExitFailure, []error{gallery.ErrNotOwner}},
	{ErrCodeUnavailable, ExitFailure, []error{marketplace.ErrUnavailable}},
}

// Classify returns the error code and exit code reported for err.
func Classify(err error) (code string, exit int) {
	for _, c := range errorClasses {
		for _, target := range c.targets {
			if errors.Is(err, target) {
				return c.code, c.exit
			}
		}
	}
	exit = GetExitCode(err)
	if exit == ExitCommandError || strings.HasPrefix(err.Error(), "unknown command") {
		return ErrCodeUsage, ExitCommandError
	}
	return ErrCodeFailure, exit
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Errors and verbose output in text mode (defaults to Writer)
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
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Render outputs data as a JSON envelope, or through text in text mode.
func (f *OutputFormatter) Render(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	return text(f.Writer)
}

// Success outputs a one-line confirmation. In JSON mode data is the payload.
func (f *OutputFormatter) Success(message string, data any) error {
	return f.Render(data, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, message)
		return err
	})
}

// Error outputs an error in the configured format. JSON errors go to Writer so
// scripts read a single document; text errors go to ErrWriter.
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

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

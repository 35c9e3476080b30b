/*
errors.go - Error types for the renewal CRM

PURPOSE:
  All error types in one place. Callers classify with errors.Is / errors.As
  and the HTTP layer maps the categories onto status codes.

ERROR CATEGORIES:
  1. ValidationError   - manual entry is missing a required field
  2. ImportFormatError - uploaded sheet lacks required columns
  3. RenderError       - message template uses an unknown placeholder
  4. Gateway failures  - recorded per recipient, never returned from Notify
  5. Store errors      - wrapped and surfaced verbatim

SEE ALSO:
  - template.go: Produces RenderError
  - import.go: Produces ImportFormatError
  - api/handlers.go: Maps errors to HTTP status
*/
package crm

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the category of every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrImportFormat is the category of every *ImportFormatError.
	ErrImportFormat = errors.New("invalid import format")

	// ErrRender is the category of every *RenderError.
	ErrRender = errors.New("template render failed")

	// ErrClientNotFound is returned when a policy references a client that
	// does not exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrMissingPhone marks a recipient that was skipped for lack of a number.
	ErrMissingPhone = errors.New("recipient has no phone number")

	// ErrNoMessageID is recorded when the provider accepted a call but
	// returned no message identifier.
	ErrNoMessageID = errors.New("provider returned no message id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the field that failed manual-entry validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ImportFormatError lists the required columns absent from an uploaded sheet.
type ImportFormatError struct {
	Missing []string
	Found   []string
}

func (e *ImportFormatError) Error() string {
	return fmt.Sprintf("missing columns %s (found %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

func (e *ImportFormatError) Unwrap() error {
	return ErrImportFormat
}

// RenderError reports a template that cannot be rendered safely.
type RenderError struct {
	Placeholder string // offending placeholder text, without braces
	Offset      int    // byte offset in the template
	Reason      string
}

func (e *RenderError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("template: %s {%s} at offset %d", e.Reason, e.Placeholder, e.Offset)
	}
	return fmt.Sprintf("template: %s at offset %d", e.Reason, e.Offset)
}

func (e *RenderError) Unwrap() error {
	return ErrRender
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error was caused by user input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrImportFormat) ||
		errors.Is(err, ErrRender)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

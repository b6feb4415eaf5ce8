package cli

import (
	"errors"
	"fmt"

	"github.com/cscx-ai/draftd/internal/application"
	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/session"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, application.ErrSessionNotFound):
		return NewCLIError("session not found", "Run 'draftd list' to see open sessions", err)
	case errors.Is(err, session.ErrConfirmDiscard):
		return NewCLIError("draft has unsaved changes", "Re-run with --yes to discard them", err)
	case errors.Is(err, session.ErrSessionSaving):
		return NewCLIError("a save is already in flight", "Wait for it to finish, then retry", err)
	case errors.Is(err, session.ErrMinimumSize):
		return NewCLIError("collection is at its minimum size", "The last remaining item cannot be removed", err)
	case errors.Is(err, document.ErrUnknownKind):
		return NewCLIError("unknown document kind", "Run 'draftd kinds' to list supported kinds", err)
	case errors.Is(err, document.ErrInvalidDocument):
		return NewCLIError("document does not match its kind's schema", "Check the required fields and collections for the kind", err)
	}

	return err
}

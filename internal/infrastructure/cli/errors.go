package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/felixgeelhaar/specaudit/pkg/domain/workflow"
	"github.com/felixgeelhaar/specaudit/pkg/infrastructure/auditor"
)

// Exit codes.
const (
	ExitFailure    = 1
	ExitValidation = 2
	ExitAudit      = 3
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
		ExitCode: ExitFailure,
	}
}

func validationError(msg, hint string, err error) *CLIError {
	e := NewCLIError(msg, hint, err)
	e.ExitCode = ExitValidation
	return e
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var mismatch *normalize.NameMismatchError
	if errors.As(err, &mismatch) {
		return validationError(
			normalize.Message(err),
			fmt.Sprintf("Pass --mcat %q or upload the file for %q", mismatch.Expected, mismatch.Got),
			nil,
		)
	}

	var transErr *workflow.TransitionError
	if errors.As(err, &transErr) {
		return NewCLIError(transErr.Error(), "Load a file and submit the form before auditing or proceeding", nil)
	}

	var statusErr *auditor.StatusError
	if errors.As(err, &statusErr) {
		e := NewCLIError("auditor rejected the request", "Check auditor.endpoint and auditor.headers in .specaudit.yaml", err)
		e.ExitCode = ExitAudit
		return e
	}

	var schemaErr *auditor.SchemaError
	if errors.As(err, &schemaErr) {
		e := NewCLIError("auditor returned malformed results", "Run 'specaudit schema' to see the expected payload", err)
		e.ExitCode = ExitAudit
		return e
	}

	switch {
	case errors.Is(err, normalize.ErrMissingName):
		return validationError(normalize.Message(err), "Pass the category with --mcat", nil)
	case errors.Is(err, normalize.ErrMissingFile):
		return validationError(normalize.Message(err), "Pass a specifications JSON file as an argument", nil)
	case errors.Is(err, normalize.ErrInvalidJSON):
		return validationError(normalize.Message(err), "Check the file with 'jq . <file>'", err)
	case errors.Is(err, normalize.ErrNoSpecificationsFound):
		return validationError(normalize.Message(err), "Run 'specaudit preview <file>' to see which format was detected", nil)
	case errors.Is(err, application.ErrNoResults):
		return NewCLIError("no audit results", "Run 'specaudit audit' first", err)
	}

	return err
}

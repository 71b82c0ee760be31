package normalize

import (
	"errors"
	"fmt"
)

// Validation errors. None of them is fatal: the user corrects the input and
// submits again. Message renders them for display.
var (
	// ErrMissingName indicates the MCAT name was empty after trimming.
	ErrMissingName = errors.New("mcat name is required")

	// ErrMissingFile indicates no specifications document was loaded.
	ErrMissingFile = errors.New("specifications file is required")

	// ErrInvalidJSON indicates the uploaded file is not valid JSON.
	ErrInvalidJSON = errors.New("invalid json document")

	// ErrNoSpecificationsFound indicates the document produced no specifications.
	ErrNoSpecificationsFound = errors.New("no specifications found in document")

	// ErrNameMismatch is matched by every NameMismatchError.
	ErrNameMismatch = errors.New("mcat name does not match document")
)

// NameMismatchError reports that the document belongs to another category.
type NameMismatchError struct {
	Expected string
	Got      string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("mcat name %q does not match document category %q", e.Got, e.Expected)
}

// Is allows errors.Is to work with NameMismatchError.
func (e *NameMismatchError) Is(target error) bool {
	return target == ErrNameMismatch
}

// parseError keeps the decoder failure while matching ErrInvalidJSON.
type parseError struct {
	cause error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidJSON, e.cause)
}

func (e *parseError) Is(target error) bool {
	return target == ErrInvalidJSON
}

func (e *parseError) Unwrap() error {
	return e.cause
}

// Message returns the sentence shown in the form for a validation error.
// Errors outside the validation taxonomy are rendered with their own text.
func Message(err error) string {
	var mismatch *NameMismatchError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &mismatch):
		return fmt.Sprintf("MCAT Name does not match uploaded JSON. Expected: %q", mismatch.Expected)
	case errors.Is(err, ErrMissingName):
		return "MCAT Name is required"
	case errors.Is(err, ErrMissingFile):
		return "Please upload a specifications JSON file"
	case errors.Is(err, ErrInvalidJSON):
		return "Invalid JSON file. Please upload a valid JSON file."
	case errors.Is(err, ErrNoSpecificationsFound):
		return "No specifications found in the uploaded JSON file"
	default:
		return err.Error()
	}
}

// IsValidation reports whether err belongs to the validation taxonomy.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, ErrNameMismatch) ||
		errors.Is(err, ErrNoSpecificationsFound)
}

var (
	errTrailingData = errors.New("unexpected data after top-level value")
	errNullDocument = errors.New("document is null")
)

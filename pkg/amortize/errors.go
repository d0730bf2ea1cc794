package amortize

import (
	"errors"
	"fmt"

	"github.com/shunichi-ikebuchi/beancount-amortize/pkg/beancount"
)

var (
	// ErrInvalidStructure is reported for a tagged transaction that does not
	// have exactly two postings with units.
	ErrInvalidStructure = errors.New("invalid structure")

	// ErrInvalidMetadata is reported when amortize_months is not a positive integer.
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// Error is an error record tied to the directive that caused it.
type Error struct {
	Kind    error
	Source  string // "filename:lineno" when known
	Message string
	Entry   beancount.Directive
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, entry beancount.Directive, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Source:  entry.DirectiveMeta().Source(),
		Message: fmt.Sprintf(format, args...),
		Entry:   entry,
	}
}

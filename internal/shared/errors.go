package shared

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification attached to every
// business-rule failure. Handlers map kinds to HTTP statuses; callers
// branch on kinds instead of matching error strings.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindInvalidState       ErrorKind = "invalid_state"
	KindAlreadyConfirmed   ErrorKind = "already_confirmed"
	KindRevisionNotAllowed ErrorKind = "revision_not_allowed"
	KindUnknownTier        ErrorKind = "unknown_tier"
	KindDataIntegrity      ErrorKind = "data_integrity"
	KindValidation         ErrorKind = "validation"
)

// DomainError carries an ErrorKind plus a human-readable reason.
type DomainError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewError builds a DomainError with a formatted reason.
func NewError(kind ErrorKind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and reason to an underlying error.
func WrapError(err error, kind ErrorKind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Reason: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrorKind from err, or "" when err carries none
// (transient infrastructure errors stay unclassified and bubble up).
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ReasonOf returns the human-readable reason of a classified error.
func ReasonOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

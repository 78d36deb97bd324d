package schedule

import (
	"errors"
	"fmt"
)

// Kind classifies failures of the calendar access manager so callers can
// decide whether an operation is worth retrying.
type Kind int

const (
	// KindUnexpected is the catch-all for anything not classified below.
	KindUnexpected Kind = iota

	// KindConfigurationMissing means no OAuth client secret is available.
	// Not retryable without operator action.
	KindConfigurationMissing

	// KindAuthorizationFailed means the interactive consent flow did not
	// complete. Retryable by re-invoking.
	KindAuthorizationFailed

	// KindRefreshFailed means the refresh token was rejected or expired.
	// The stored credential is preserved for diagnostics; recovery
	// ultimately requires re-authorization.
	KindRefreshFailed

	// KindCalendarAPI means the calendar provider rejected the request.
	// May be transient.
	KindCalendarAPI
)

// String returns the canonical name of the error kind.
func (k Kind) String() string {
	switch k {
	case KindConfigurationMissing:
		return "configuration_missing"
	case KindAuthorizationFailed:
		return "authorization_failed"
	case KindRefreshFailed:
		return "refresh_failed"
	case KindCalendarAPI:
		return "calendar_api_error"
	default:
		return "unexpected_error"
	}
}

// Error is the error type returned across component boundaries. It carries
// the classification, the acting user, and the underlying cause. Errors are
// always returned as values, never thrown past a boundary.
type Error struct {
	Kind   Kind
	UserID string
	Err    error
}

// NewError creates a classified error annotated with the acting user.
func NewError(kind Kind, userID string, err error) *Error {
	return &Error{Kind: kind, UserID: userID, Err: err}
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind Kind, userID, format string, args ...any) *Error {
	return &Error{Kind: kind, UserID: userID, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s for user %s", e.Kind, e.UserID)
	}
	return fmt.Sprintf("%s for user %s: %v", e.Kind, e.UserID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same kind. This lets
// callers match on classification with errors.Is using a kind sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is matching.
var (
	ErrConfigurationMissing = &Error{Kind: KindConfigurationMissing}
	ErrAuthorizationFailed  = &Error{Kind: KindAuthorizationFailed}
	ErrRefreshFailed        = &Error{Kind: KindRefreshFailed}
	ErrCalendarAPI          = &Error{Kind: KindCalendarAPI}
	ErrUnexpected           = &Error{Kind: KindUnexpected}
)

// KindOf returns the classification of err, or KindUnexpected when err is
// not a classified error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

package apperror

import (
	"errors"
	"fmt"
)

// Client-side failure kinds. AuthenticationRequired and ValidationFailure are
// raised before any request leaves the process; ServerRejected and
// NetworkFailure come back from a request that was actually sent.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrValidationFailure      = errors.New("validation failure")
	ErrServerRejected         = errors.New("server rejected the request")
	ErrNetworkFailure         = errors.New("network failure")
)

// ClientError carries the kind of a client-side failure together with its
// cause. errors.Is matches both, e.g. ErrServerRejected and ErrOutOfStock.
type ClientError struct {
	Kind    error
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *ClientError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func AuthenticationRequired(msg string) *ClientError {
	return &ClientError{Kind: ErrAuthenticationRequired, Message: msg, Err: ErrNotAuthorized}
}

func ValidationFailure(err error) *ClientError {
	return &ClientError{Kind: ErrValidationFailure, Err: err}
}

func NetworkFailure(err error) *ClientError {
	return &ClientError{Kind: ErrNetworkFailure, Err: err}
}

// ServerRejected builds the error for a non-2xx answer. The code is resolved
// back to its sentinel so callers can branch with errors.Is.
func ServerRejected(status int, code, msg string) *ClientError {
	cause := FromCode(code)
	if cause == nil {
		cause = ErrInternal
	}
	return &ClientError{Kind: ErrServerRejected, Status: status, Code: code, Message: msg, Err: cause}
}

// Rollback reports whether err must revert optimistic state: only failures
// of requests that were actually sent do.
func Rollback(err error) bool {
	return errors.Is(err, ErrServerRejected) || errors.Is(err, ErrNetworkFailure)
}

package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Domain rejections. Each one travels over the wire as a stable code.
var (
	ErrInsufficientPoints   = errors.New("insufficient points")
	ErrOutOfStock           = errors.New("out of stock")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrRedemptionInProgress = errors.New("redemption already in progress")
)

const (
	CodeNotFound             = "not_found"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeBadRequest           = "bad_request"
	CodeInvalidInput         = "invalid_input"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal"
	CodeInsufficientPoints   = "insufficient_points"
	CodeOutOfStock           = "out_of_stock"
	CodeInvalidQuantity      = "invalid_quantity"
	CodeAlreadyExists        = "already_exists"
	CodeNotAuthorized        = "not_authorized"
	CodeRedemptionInProgress = "redemption_in_progress"
)

var codes = []struct {
	code string
	err  error
}{
	{CodeInsufficientPoints, ErrInsufficientPoints},
	{CodeOutOfStock, ErrOutOfStock},
	{CodeInvalidQuantity, ErrInvalidQuantity},
	{CodeAlreadyExists, ErrAlreadyExists},
	{CodeNotAuthorized, ErrNotAuthorized},
	{CodeRedemptionInProgress, ErrRedemptionInProgress},
	{CodeNotFound, ErrNotFound},
	{CodeUnauthorized, ErrUnauthorized},
	{CodeForbidden, ErrForbidden},
	{CodeBadRequest, ErrBadRequest},
	{CodeInvalidInput, ErrInvalidInput},
	{CodeRateLimited, ErrRateLimitExceeded},
	{CodeInternal, ErrInternal},
}

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code returns the wire code for err, falling back to CodeInternal.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// FromCode is the inverse of Code. Unknown codes yield nil.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientPoints):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimitExceeded), errors.Is(err, ErrRedemptionInProgress):
		return http.StatusTooManyRequests
	}
	// Default to internal server error
	return http.StatusInternalServerError
}

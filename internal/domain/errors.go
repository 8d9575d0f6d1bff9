package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the failure class of an API call. Every error the
// transport surfaces to a caller carries exactly one of these codes.
type ErrorCode string

const (
	CodeValidation   ErrorCode = "validation"
	CodeUnauthorized ErrorCode = "unauthorized"
	CodeForbidden    ErrorCode = "forbidden"
	CodeNotFound     ErrorCode = "not_found"
	CodeRateLimited  ErrorCode = "rate_limited"
	CodeServer       ErrorCode = "server"
	CodeNetwork      ErrorCode = "network"
	CodeTimeout      ErrorCode = "timeout"
	CodeBadGateway   ErrorCode = "bad_gateway"
	CodeGeneric      ErrorCode = "generic"

	// CodeCORS is part of the wire-level taxonomy for parity with browser
	// clients of the same backend. The Go transport never produces it.
	CodeCORS ErrorCode = "cors"
)

// APIError is the classified error surfaced by the transport layer.
// Message is human-readable; Raw carries a response-body excerpt when the
// body could not be interpreted.
type APIError struct {
	Code    ErrorCode
	Message string
	Raw     string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *APIError with the same code, so callers
// can match on class via errors.Is without caring about the message.
func (e *APIError) Is(target error) bool {
	var apiErr *APIError
	if !errors.As(target, &apiErr) {
		return false
	}

	return e.Code == apiErr.Code
}

// NewAPIError creates an APIError with the given code and message.
func NewAPIError(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// CodeOf extracts the error code from err. Returns CodeGeneric for any error
// that is not an *APIError.
func CodeOf(err error) ErrorCode {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	return CodeGeneric
}

var (
	// ErrUserAlreadyExists is returned when creating a user whose email is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the email/password pair is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshTokenNotFound is returned when a refresh token is unknown or rotated away.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrRefreshTokenExpired is returned when a refresh token is past its expiry.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrNoRefreshToken is returned when a refresh is requested but no token is stored.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrNotFound is returned when a content record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrMediaTooLarge is returned when an upload exceeds the configured size limit.
	ErrMediaTooLarge = errors.New("media too large")
)

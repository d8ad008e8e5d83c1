package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors surfaced to clients.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewDuplicateIdentity reports an already-registered email. The original
// contract surfaces the conflict as a 400.
func NewDuplicateIdentity() error {
	return NewDomainError("DUPLICATE_IDENTITY", "user already exists, please login", http.StatusBadRequest, nil)
}

// NewAuthenticationFailed returns the uniform login failure. Unknown email
// and wrong password share one message to avoid account enumeration.
func NewAuthenticationFailed() error {
	return NewDomainError("AUTHENTICATION_FAILED", "invalid email or password", http.StatusUnauthorized, nil)
}

func NewTokenMissing(message string) error {
	return NewDomainError("TOKEN_MISSING", message, http.StatusUnauthorized, nil)
}

// NewRefreshTokenRequired reports an empty renewal request body. The
// original contract answers renewal failures with 403 across the board.
func NewRefreshTokenRequired() error {
	return NewDomainError("TOKEN_MISSING", "refresh token is required", http.StatusForbidden, nil)
}

// NewRefreshTokenUnknown reports a presented token with no stored record.
func NewRefreshTokenUnknown() error {
	return NewDomainError("TOKEN_UNKNOWN", "refresh token not recognized", http.StatusForbidden, nil)
}

func NewTokenInvalid() error {
	return NewDomainError("TOKEN_INVALID", "invalid token", http.StatusForbidden, nil)
}

func NewTokenExpired(message string) error {
	return NewDomainError("TOKEN_EXPIRED", message, http.StatusForbidden, nil)
}

func NewAccessDenied(message string) error {
	return NewDomainError("ACCESS_DENIED", message, http.StatusForbidden, nil)
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewRateLimited(message string) error {
	return NewDomainError("RATE_LIMITED", message, http.StatusTooManyRequests, nil)
}

// NewInternalError wraps err behind a generic client-facing message so
// storage and infrastructure detail never leaks to clients.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}

package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/ip-manager/internal/persistence"
	"github.com/spec-kit/ip-manager/internal/repository"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	// Bare responses carry the status code only, without a JSON body.
	Bare bool
	Err  error
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
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

func NewValidationError(message string) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest)
}

func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
}

// NewUnauthorized is returned when no credential was presented.
func NewUnauthorized() error {
	return &DomainError{Code: "UNAUTHORIZED", Message: "unauthorized", HTTPStatus: http.StatusUnauthorized, Bare: true}
}

// NewForbidden is returned when a credential was presented but rejected.
func NewForbidden() error {
	return &DomainError{Code: "FORBIDDEN", Message: "forbidden", HTTPStatus: http.StatusForbidden, Bare: true}
}

func NewDuplicateUser() error {
	return NewDomainError("DUPLICATE_USER", "User already exists", http.StatusBadRequest)
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewUnsupportedFormat() error {
	return NewDomainError("UNSUPPORTED_FORMAT", "Invalid format", http.StatusBadRequest)
}

func NewNoData() error {
	return NewDomainError("NO_DATA", "No data to export", http.StatusNotFound)
}

func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

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
	var target error
	switch {
	case errors.Is(err, repository.ErrNotFound):
		target = NewNotFound("resource")
	case errors.Is(err, repository.ErrDuplicateEmail):
		target = NewDuplicateUser()
	case errors.Is(err, persistence.ErrStoreUnavailable):
		target = NewStoreUnavailable(err)
	default:
		target = NewInternalError(err)
	}
	de, _ := target.(*DomainError)
	return de
}

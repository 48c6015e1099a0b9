package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// errorType values rendered as "errorType" in the error envelope
const (
	ErrTypeValidation   = "ValidationError"
	ErrTypeUnauthorized = "Unauthorized"
	ErrTypeForbidden    = "Forbidden"
	ErrTypeNotFound     = "NotFound"
	ErrTypeRateLimited  = "TooManyRequests"
	ErrTypeGateway      = "GatewayError"
	ErrTypeGatewayAuth  = "GatewayAuthError"
	ErrTypeInternal     = "InternalError"
)

// HTTPError is the error every usecase returns to handlers.
// Detail is for operators and is rendered only in development.
type HTTPError struct {
	Status  int
	Type    string
	Message string
	Detail  string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Type:    typeForStatus(status),
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func NewValidationError(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

func NewUnauthorized(message string) error {
	return NewHTTPError(http.StatusUnauthorized, message)
}

func NewForbidden(message string) error {
	return NewHTTPError(http.StatusForbidden, message)
}

func NewNotFound(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

// NewInternal hides err from the client; the handler logs it.
func NewInternal(err error) error {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Type:    ErrTypeInternal,
		Message: "internal server error",
		Detail:  errString(err),
		Err:     err,
	}
}

func typeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return ErrTypeValidation
	case http.StatusUnauthorized:
		return ErrTypeUnauthorized
	case http.StatusForbidden:
		return ErrTypeForbidden
	case http.StatusNotFound:
		return ErrTypeNotFound
	case http.StatusTooManyRequests:
		return ErrTypeRateLimited
	case http.StatusServiceUnavailable:
		return ErrTypeGatewayAuth
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return ErrTypeGateway
	}
	return ErrTypeInternal
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package paypack

import (
	"errors"
	"fmt"
)

// ErrAuthExpired marks a 401 from the provider for a token we still held.
// The cached token has already been dropped when this is returned.
var ErrAuthExpired = errors.New("paypack: access token rejected")

var ErrInvalidAmount = errors.New("paypack: amount must not be negative")

// AuthError is a failed token exchange.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paypack auth failed: %v", e.Err)
	}
	return fmt.Sprintf("paypack auth failed: status %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// GatewayError is a failed provider call; Status is 0 for transport errors and timeouts.
type GatewayError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil && e.Status == 0 {
		return fmt.Sprintf("paypack %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("paypack %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// bounded copy of an upstream body for diagnostics
func truncateBody(b []byte) string {
	const max = 2048
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

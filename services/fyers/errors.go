package fyers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized indicates the quote API rejected the access token
var ErrUnauthorized = errors.New("fyers: unauthorized")

// ErrNoQuoteData indicates the quote payload lacked usable price fields
var ErrNoQuoteData = errors.New("fyers: no quote data")

// ConfigError reports required credentials missing from the environment
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing Fyers credentials: %s", strings.Join(e.Missing, ", "))
}

// RefreshError reports a rejected token refresh, carrying the upstream
// response for diagnosis
type RefreshError struct {
	Status int
	Body   string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("failed to refresh token (status %d): %s", e.Status, e.Body)
}

// AuthError means no usable access token could be obtained by any path
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("no usable access token: %v", e.Cause)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

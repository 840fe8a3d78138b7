package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigError reports a configuration problem detected before any network
// call was made, e.g. a missing API key. Not retryable.
type ConfigError struct {
	Provider string
	Missing  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Provider, e.Missing)
}

// APIError reports a non-2xx response from a provider, carrying the status
// code and whatever error detail the vendor body contained.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	ErrType    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status %d", e.Provider, e.StatusCode)
}

// IsRateLimit reports whether the error was an HTTP 429.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimitError reports whether err wraps a 429 APIError.
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRateLimit()
}

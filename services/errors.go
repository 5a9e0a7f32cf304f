package services

import (
	"errors"
	"fmt"
)

// ErrTelemetryNotFound means a bus has no telemetry rows at all.
var ErrTelemetryNotFound = errors.New("no telemetry for bus")

// ProviderError is a failure reported by (or while reaching) an external
// provider. Status carries the provider's own status string when one was
// returned; URL is the attempted endpoint without credentials.
type ProviderError struct {
	Provider string
	Status   string
	URL      string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s provider error: %s", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s provider unreachable at %s: %v", e.Provider, e.URL, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ShapeError means a provider answered successfully but the payload did not
// carry the expected field as a finite number. Raw keeps the response body
// for operator diagnosis; it is logged, never returned to clients.
type ShapeError struct {
	Provider string
	Field    string
	Raw      []byte
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s provider returned unexpected response shape: missing or non-numeric %q", e.Provider, e.Field)
}

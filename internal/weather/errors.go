package weather

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when geocoding yields no results.
	ErrNotFound = errors.New("location not found")
	// ErrEmptyQuery is returned for a blank city name.
	ErrEmptyQuery = errors.New("empty query")
)

// NetworkError means the request did not complete.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-success HTTP status from an upstream endpoint.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

// SchemaError means a response body did not have the documented shape.
type SchemaError struct {
	Endpoint string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected %s response: %v", e.Endpoint, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Message reduces a lookup error to the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		apiErr    *APIError
		netErr    *NetworkError
		schemaErr *SchemaError
	)
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "Enter a city name."
	case errors.Is(err, ErrNotFound):
		return "City not found. Check the spelling and try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The weather service took too long to answer. Please try again."
	case errors.As(err, &apiErr):
		return fmt.Sprintf("The %s service returned an error (HTTP %d).", apiErr.Endpoint, apiErr.Status)
	case errors.As(err, &schemaErr):
		return fmt.Sprintf("The %s service sent data we could not read.", schemaErr.Endpoint)
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not reach the %s service.", netErr.Endpoint)
	default:
		return "Something went wrong while fetching the weather."
	}
}

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	var (
		apiErr    *APIError
		netErr    *NetworkError
		schemaErr *SchemaError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptyQuery):
		return "not_found"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &schemaErr):
		return "schema_error"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "error"
	}
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoSource        = errors.New("no source supports query")
	ErrNotFound        = errors.New("not found")
	ErrHistoryDisabled = errors.New("analysis history is disabled")
)

// FetchErrorKind classifies why a provider request failed.
type FetchErrorKind string

const (
	FetchTransport FetchErrorKind = "transport"
	FetchStatus    FetchErrorKind = "status"
	FetchDecode    FetchErrorKind = "decode"
	FetchProvider  FetchErrorKind = "provider"
)

// FetchError is returned by source adapters when a request did not produce a
// usable payload. An empty result is never reported as a FetchError.
type FetchError struct {
	Provider   Provider
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchStatus {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

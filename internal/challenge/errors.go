package challenge

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means no usable LLM provider is configured or
	// the provider could not be reached.
	ErrProviderUnavailable = errors.New("challenge provider unavailable")

	// ErrRateLimited means the provider refused the request for exceeding
	// its rate limit. Trying again later may succeed.
	ErrRateLimited = errors.New("challenge provider rate limited")

	// ErrInvalidGeneration means the provider answered with something that
	// is not a usable challenge.
	ErrInvalidGeneration = errors.New("invalid challenge generated")

	// ErrEmptyGeneration means the provider answered with no content.
	ErrEmptyGeneration = errors.New("provider returned no challenge")

	// ErrNoSourceFiles means the digest has no files to target.
	ErrNoSourceFiles = errors.New("no source files available for a challenge")
)

// ValidationError describes why a generated challenge was rejected.
// It matches ErrInvalidGeneration under errors.Is.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidGeneration }

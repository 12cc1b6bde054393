package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDuration is matched by every *InvalidDurationError.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidSeed is matched by every *InvalidSeedError.
	ErrInvalidSeed = errors.New("invalid seed")
	// ErrInvalidParams reports generator parameters outside their domain.
	ErrInvalidParams = errors.New("invalid simulation parameters")
	// ErrInvalidZone reports a malformed zone table.
	ErrInvalidZone = errors.New("invalid zone")
)

// InvalidDurationError is returned when a simulation is requested for a
// non-positive number of hours.
type InvalidDurationError struct {
	Hours int
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration: %d hours (must be > 0)", e.Hours)
}

func (e *InvalidDurationError) Is(target error) bool { return target == ErrInvalidDuration }

// InvalidSeedError is returned when a seed value is not an integer.
type InvalidSeedError struct {
	Value string
}

func (e *InvalidSeedError) Error() string {
	return fmt.Sprintf("invalid seed %q: must be an integer", e.Value)
}

func (e *InvalidSeedError) Is(target error) bool { return target == ErrInvalidSeed }

// SerializationError is returned when the output artifact cannot be encoded
// or written. It is surfaced to the caller unchanged and never retried.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize report to %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

package launch

import "errors"

var (
	// ErrNotFound is returned when no run exists for an idempotency key.
	ErrNotFound = errors.New("launch run not found")

	// ErrExecutionBlocked is returned when a request carries the blocked
	// execution status. Nothing runs and nothing is persisted.
	ErrExecutionBlocked = errors.New("launch request is blocked")

	// ErrInvalidRequest wraps structural validation failures; nothing ran.
	ErrInvalidRequest = errors.New("invalid launch request")
)

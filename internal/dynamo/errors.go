package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for construction and simulation.
var (
	// ErrInvalidRadius indicates a body radius that is not a positive finite number.
	ErrInvalidRadius = errors.New("dynamo: radius must be positive and finite")

	// ErrNonFinite indicates a NaN or Inf coordinate or parameter.
	ErrNonFinite = errors.New("dynamo: value is NaN or Inf")

	// ErrUnknownHandle indicates a handle that names no body in the world.
	ErrUnknownHandle = errors.New("dynamo: unknown body handle")

	// ErrWorldSealed indicates an attempt to add a body after the first step.
	ErrWorldSealed = errors.New("dynamo: world already stepped, body set is fixed")

	// ErrInvalidState indicates the simulation produced NaN or Inf positions.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a configuration that cannot build a world.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// BodyError wraps a construction error with the offending field.
type BodyError struct {
	Field   string
	Wrapped error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("body %s: %v", e.Field, e.Wrapped)
}

func (e *BodyError) Unwrap() error {
	return e.Wrapped
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

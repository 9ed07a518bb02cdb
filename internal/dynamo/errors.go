package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a particle with NaN or Inf coordinates.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrInvalidTypeIndex indicates a particle type that has no parameter slot.
	ErrInvalidTypeIndex = errors.New("dynamo: invalid particle type index")

	// ErrUnknownWeightFunction indicates a weight law outside the defined set.
	ErrUnknownWeightFunction = errors.New("dynamo: unknown weight function")

	// ErrUnknownEvent indicates a scheduled event kind the simulator cannot apply.
	ErrUnknownEvent = errors.New("dynamo: unknown scheduled event")
)

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

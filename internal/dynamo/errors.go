package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidOrder indicates an order argument that is NaN, infinite or out of range.
	ErrInvalidOrder = errors.New("dynamo: invalid order argument")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownKind indicates a robot kind, integrator or strategy op with no registration.
	ErrUnknownKind = errors.New("dynamo: unknown kind")

	// ErrAlreadyRegistered indicates a robot registered twice in a match.
	ErrAlreadyRegistered = errors.New("dynamo: robot is already registered")

	// ErrTeamFull indicates a team with no free slot left.
	ErrTeamFull = errors.New("dynamo: team is full")
)

// TickError wraps an error with the robot and tick it happened on.
type TickError struct {
	Robot   string
	Step    int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return e.Robot + ": " + e.Wrapped.Error()
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}

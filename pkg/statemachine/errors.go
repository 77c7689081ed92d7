package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNotReachable      = errors.New("target state is not reachable")
	ErrGuardHalted       = errors.New("transition halted by guard")
	ErrUnsupportedEntity = errors.New("unsupported entity: expected struct, pointer to struct, or map with string keys")
	ErrFieldNotFound     = errors.New("state field not found on entity")
	ErrFieldNotString    = errors.New("state field must be of string kind")
	ErrNilMachine        = errors.New("machine cannot be nil")
	ErrInvalidDefinition = errors.New("invalid machine definition")
)

// InvalidTransitionError is returned when a transition is rejected, either
// because the target is unreachable or because the guard halted it.
// Error returns the rejection reason as-is so callers can match on it.
type InvalidTransitionError struct {
	From   State
	To     State
	Reason any
	kind   error
}

func (e *InvalidTransitionError) Error() string {
	if s, ok := e.Reason.(string); ok {
		return s
	}
	if err, ok := e.Reason.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Reason)
}

func (e *InvalidTransitionError) Unwrap() error {
	return e.kind
}

// notReachable builds the structural rejection. The message format is stable.
func notReachable(from, to State) *InvalidTransitionError {
	return &InvalidTransitionError{
		From:   from,
		To:     to,
		Reason: fmt.Sprintf("Cannot transition from '%s' to '%s'", from, to),
		kind:   ErrNotReachable,
	}
}

func halted(from, to State, reason any) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to, Reason: reason, kind: ErrGuardHalted}
}

func unusable(from, to State, err error) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to, Reason: err.Error(), kind: err}
}

func IsInvalidTransitionError(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsNotReachableError(err error) bool {
	return errors.Is(err, ErrNotReachable)
}

func IsGuardHaltedError(err error) bool {
	return errors.Is(err, ErrGuardHalted)
}

package statemachine

import (
	"context"
)

// Result is the outcome of Transition. When accepted, Entity carries the
// updated copy; when rejected, Entity is the input unchanged and Reason
// explains why.
type Result[T any] struct {
	Entity T
	From   State
	To     State
	err    *InvalidTransitionError
}

func (r Result[T]) Accepted() bool {
	return r.err == nil
}

// Reason is the rejection reason: the structural message or whatever the
// guard passed to Halt. Nil when accepted.
func (r Result[T]) Reason() any {
	if r.err == nil {
		return nil
	}
	return r.err.Reason
}

// Message renders the rejection reason as a string. Empty when accepted.
func (r Result[T]) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Err returns the rejection as an *InvalidTransitionError, or nil.
func (r Result[T]) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Transition decides whether entity may move to target under m. It never
// panics on rejection; every failure is reported in the result.
//
// The current state is read from the machine's field, falling back to the
// initial state. An unreachable target is rejected without calling the
// guard, as is an entity whose state field cannot hold the target. A
// reachable target is passed to the guard, and a Halt verdict
// rejects with the guard's reason. Otherwise the result holds a copy of
// entity with the field set to target.
func Transition[T any](ctx context.Context, entity T, m *Machine, target State) Result[T] {
	res := Result[T]{Entity: entity, To: target}
	if m == nil {
		res.err = unusable("", target, ErrNilMachine)
		return res
	}

	from, err := Current(entity, m)
	if err != nil {
		res.err = unusable("", target, err)
		return res
	}
	res.From = from

	if !m.CanTransition(from, target) {
		res.err = notReachable(from, target)
		return res
	}

	next, err := withState(entity, m.field, target)
	if err != nil {
		res.err = unusable(from, target, err)
		return res
	}

	if v := m.guard(ctx, entity, from, target); v.Halted() {
		res.err = halted(from, target, v.Reason())
		return res
	}
	res.Entity = next
	return res
}

// TransitionOrFail is Transition for callers who prefer an error return.
// On rejection it returns the zero value and an *InvalidTransitionError
// whose message is the rejection reason.
func TransitionOrFail[T any](ctx context.Context, entity T, m *Machine, target State) (T, error) {
	res := Transition(ctx, entity, m, target)
	if !res.Accepted() {
		var zero T
		return zero, res.Err()
	}
	return res.Entity, nil
}

package statemachine

import (
	"context"
)

// State identifies one point in a machine's finite state set.
type State string

// Any is the wildcard selector. As a transition source it matches every
// current state; as a destination it expands to every declared state.
const Any State = "*"

// DefaultField is the entity attribute that holds state when a machine
// does not name one.
const DefaultField = "state"

func (s State) String() string {
	return string(s)
}

// Guard vetoes structurally valid transitions based on runtime data.
// It is invoked only after the target is known to be reachable and receives
// the entity before its state field is changed.
type Guard func(ctx context.Context, entity any, from, to State) Verdict

// Verdict is the outcome of a Guard: Allow or Halt with a reason.
// The zero value allows.
type Verdict struct {
	halted bool
	reason any
}

// Allow lets the transition proceed.
func Allow() Verdict {
	return Verdict{}
}

// Halt stops the transition. The reason is surfaced to the caller verbatim.
func Halt(reason any) Verdict {
	return Verdict{halted: true, reason: reason}
}

func (v Verdict) Halted() bool {
	return v.halted
}

func (v Verdict) Reason() any {
	return v.reason
}

// GuardFor adapts a guard written against a concrete entity type.
// Entities of any other type are allowed through untouched.
func GuardFor[T any](fn func(ctx context.Context, entity T, from, to State) Verdict) Guard {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, entity any, from, to State) Verdict {
		typed, ok := entity.(T)
		if !ok {
			return Allow()
		}
		return fn(ctx, typed, from, to)
	}
}

func allowAll(context.Context, any, State, State) Verdict {
	return Allow()
}

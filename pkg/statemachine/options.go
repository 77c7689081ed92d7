package statemachine

import (
	"fmt"
	"maps"
)

// Option configures a machine during construction.
type Option func(*Machine) error

// WithName labels the machine. The name only shows up in logs and errors.
func WithName(name string) Option {
	return func(m *Machine) error {
		m.name = name
		return nil
	}
}

// WithField sets the entity attribute that holds state.
func WithField(field string) Option {
	return func(m *Machine) error {
		if field == "" {
			return fmt.Errorf("%w: field cannot be empty", ErrInvalidDefinition)
		}
		m.field = field
		return nil
	}
}

// WithInitial overrides the initial state, which otherwise is the first declared state.
func WithInitial(state State) Option {
	return func(m *Machine) error {
		m.initial = state
		return nil
	}
}

// WithTransition allows moving from a source selector to the given destinations.
// Pass Any as the source to match every state, or a single Any destination to
// allow every declared state. Repeated calls for one source accumulate.
func WithTransition(from State, to ...State) Option {
	return func(m *Machine) error {
		if from == "" {
			return fmt.Errorf("%w: transition source cannot be empty", ErrInvalidDefinition)
		}
		m.transitions[from] = append(m.transitions[from], to...)
		return nil
	}
}

// WithTransitions adds a whole transition map at once.
func WithTransitions(transitions map[State][]State) Option {
	return func(m *Machine) error {
		for from, to := range transitions {
			if err := WithTransition(from, to...)(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithGuard replaces the default allow-all guard. Nil is ignored.
func WithGuard(guard Guard) Option {
	return func(m *Machine) error {
		if guard != nil {
			m.guard = guard
		}
		return nil
	}
}

// WithStrictValidation makes New reject definitions that fail Validate.
// Without it, a broken definition shows up only as rejected transitions.
func WithStrictValidation() Option {
	return func(m *Machine) error {
		m.strict = true
		return nil
	}
}

func cloneTransitions(src map[State][]State) map[State][]State {
	dst := maps.Clone(src)
	for k, v := range dst {
		dst[k] = append([]State(nil), v...)
	}
	return dst
}

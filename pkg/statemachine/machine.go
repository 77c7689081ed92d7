package statemachine

import (
	"fmt"
	"slices"

	"github.com/dmitrymomot/transit/pkg/validator"
)

// Machine is an immutable machine definition: the state field name, the
// declared states, the initial state, the transition rules, and a guard.
// It holds no per-entity state and is safe for concurrent use.
type Machine struct {
	name        string
	field       string
	states      []State
	initial     State
	transitions map[State][]State
	guard       Guard
	strict      bool
}

// New builds a machine over the given states. The first state is the initial
// one unless WithInitial says otherwise.
func New(states []State, opts ...Option) (*Machine, error) {
	m := &Machine{
		field:       DefaultField,
		states:      slices.Clone(states),
		transitions: make(map[State][]State),
		guard:       allowAll,
	}
	if len(states) > 0 {
		m.initial = states[0]
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.strict {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
		}
	}

	return m, nil
}

// MustNew is like New but panics on error. Meant for package-level machine
// declarations where a bad definition should stop startup.
func MustNew(states []State, opts ...Option) *Machine {
	m, err := New(states, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine) Name() string {
	return m.name
}

func (m *Machine) Field() string {
	return m.field
}

func (m *Machine) Initial() State {
	return m.initial
}

// States returns a copy of the declared states in declaration order.
func (m *Machine) States() []State {
	return slices.Clone(m.states)
}

// Transitions returns a copy of the transition rules.
func (m *Machine) Transitions() map[State][]State {
	return cloneTransitions(m.transitions)
}

// Candidates returns every state reachable from current. Rules keyed by
// current and rules keyed by Any are both applied and their destinations
// unioned; there is no precedence between them. The result may contain
// duplicates.
func (m *Machine) Candidates(current State) []State {
	var out []State
	for _, key := range []State{current, Any} {
		to, ok := m.transitions[key]
		if !ok {
			continue
		}
		out = append(out, m.expand(to)...)
		if current == Any {
			break
		}
	}
	return out
}

// expand turns a destination selector into concrete states. Any stands for
// every declared state, the source included.
func (m *Machine) expand(to []State) []State {
	if !slices.Contains(to, Any) {
		return to
	}
	out := make([]State, 0, len(to)+len(m.states))
	for _, s := range to {
		if s == Any {
			out = append(out, m.states...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// CanTransition reports whether target is structurally reachable from
// current. The guard is not consulted.
func (m *Machine) CanTransition(current, target State) bool {
	return slices.Contains(m.Candidates(current), target)
}

// Validate checks the definition for internal consistency: declared states
// are present and distinct, the initial state is declared, and every
// non-wildcard transition selector names a declared state.
func (m *Machine) Validate() error {
	rules := []validator.Rule{
		validator.RequiredString("field", m.field),
		validator.RequiredSlice("states", m.states),
		validator.UniqueSlice("states", m.states),
	}
	if len(m.states) > 0 {
		rules = append(rules, validator.InList("initial", m.initial, m.states))
	}

	declared := append(slices.Clone(m.states), Any)
	for _, from := range sortedKeys(m.transitions) {
		rules = append(rules, validator.InList("transitions", from, declared))
		for _, to := range m.transitions[from] {
			rules = append(rules, validator.InList(fmt.Sprintf("transitions.%s", from), to, declared))
		}
	}

	return validator.Apply(rules...)
}

func sortedKeys(transitions map[State][]State) []State {
	keys := make([]State, 0, len(transitions))
	for k := range transitions {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

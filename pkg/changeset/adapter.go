package changeset

import (
	"context"

	"github.com/dmitrymomot/transit/pkg/statemachine"
)

// Tracker is the change-tracking API of a persistence collaborator. C is the
// collaborator's pending-change type.
type Tracker[C any] interface {
	// Resolve returns the value input would have once its pending changes
	// are applied. Guards observe this value.
	Resolve(input C) (any, error)
	// Change records field updates on input.
	Change(input C, updates map[string]any) C
	// AddFieldError marks input invalid with an error scoped to field.
	AddFieldError(input C, field, message string) C
}

// TransitionWith runs the transition against the prospective value of input
// and translates the outcome through tr. An accepted transition records the
// state change on the original input so other pending changes are kept. A
// rejection becomes a field error on the machine's state field carrying the
// rejection message.
func TransitionWith[C any](ctx context.Context, input C, m *statemachine.Machine, target statemachine.State, tr Tracker[C]) C {
	field := statemachine.DefaultField
	if m != nil {
		field = m.Field()
	}

	entity, err := tr.Resolve(input)
	if err != nil {
		return tr.AddFieldError(input, field, err.Error())
	}

	res := statemachine.Transition(ctx, entity, m, target)
	if !res.Accepted() {
		return tr.AddFieldError(input, field, res.Message())
	}
	return tr.Change(input, map[string]any{field: string(target)})
}

// Transition is TransitionWith over the in-memory Changeset. input may be a
// *Changeset with pending changes or a plain entity, which is cast first.
func Transition(ctx context.Context, input any, m *statemachine.Machine, target statemachine.State) *Changeset {
	cs, ok := input.(*Changeset)
	if !ok || cs == nil {
		cs = Cast(input)
	}
	return TransitionWith(ctx, cs, m, target, Memory{})
}

// Memory is the Tracker for *Changeset.
type Memory struct{}

func (Memory) Resolve(cs *Changeset) (any, error) {
	return cs.Apply()
}

func (Memory) Change(cs *Changeset, updates map[string]any) *Changeset {
	for field, value := range updates {
		cs = cs.Put(field, value)
	}
	return cs
}

func (Memory) AddFieldError(cs *Changeset, field, message string) *Changeset {
	return cs.AddError(field, message)
}

package statemachine_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/transit/pkg/statemachine"
	"github.com/dmitrymomot/transit/pkg/validator"
)

type post struct {
	ID    int
	Title string
	State string
}

type order struct {
	ID     string
	Status statemachine.State `fsm:"status"`
}

type code int

func (c code) String() string {
	return "code-" + strconv.Itoa(int(c))
}

func states(names ...string) []statemachine.State {
	out := make([]statemachine.State, len(names))
	for i, n := range names {
		out[i] = statemachine.State(n)
	}
	return out
}

func TestTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("exact match", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition("a", "b"),
		)

		res := statemachine.Transition(ctx, post{ID: 1, State: "a"}, m, "b")
		require.True(t, res.Accepted())
		assert.Equal(t, "b", res.Entity.State)
		assert.Equal(t, 1, res.Entity.ID)
		assert.Equal(t, statemachine.State("a"), res.From)
		assert.Equal(t, statemachine.State("b"), res.To)

		res = statemachine.Transition(ctx, post{State: "a"}, m, "c")
		require.False(t, res.Accepted())
		assert.Equal(t, "Cannot transition from 'a' to 'c'", res.Reason())
		assert.Equal(t, "a", res.Entity.State)
	})

	t.Run("list destination", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b", "c", "d"),
			statemachine.WithTransition("a", "b", "c"),
		)

		for _, target := range states("b", "c") {
			res := statemachine.Transition(ctx, post{State: "a"}, m, target)
			require.True(t, res.Accepted(), "a -> %s", target)
			assert.Equal(t, string(target), res.Entity.State)
		}

		res := statemachine.Transition(ctx, post{State: "a"}, m, "d")
		assert.False(t, res.Accepted())
	})

	t.Run("wildcard source", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition(statemachine.Any, "b"),
		)

		for _, from := range []string{"a", "b", "never-declared"} {
			res := statemachine.Transition(ctx, post{State: from}, m, "b")
			require.True(t, res.Accepted(), "%s -> b", from)
			assert.Equal(t, "b", res.Entity.State)
		}
	})

	t.Run("wildcard destination", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b", "c"),
			statemachine.WithTransition("a", statemachine.Any),
		)

		for _, target := range states("a", "b", "c") {
			res := statemachine.Transition(ctx, post{State: "a"}, m, target)
			assert.True(t, res.Accepted(), "a -> %s", target)
		}
		assert.False(t, statemachine.Transition(ctx, post{State: "a"}, m, "z").Accepted())
		assert.False(t, statemachine.Transition(ctx, post{State: "b"}, m, "c").Accepted())
	})

	t.Run("exact and wildcard rules are unioned", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b", "c"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithTransition(statemachine.Any, "c"),
		)

		assert.True(t, statemachine.Transition(ctx, post{State: "a"}, m, "b").Accepted())
		assert.True(t, statemachine.Transition(ctx, post{State: "a"}, m, "c").Accepted())
		assert.False(t, statemachine.Transition(ctx, post{State: "b"}, m, "b").Accepted())
	})

	t.Run("empty state falls back to initial", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b", "c"),
			statemachine.WithInitial("b"),
			statemachine.WithTransition("b", "c"),
		)

		res := statemachine.Transition(ctx, post{}, m, "c")
		require.True(t, res.Accepted())
		assert.Equal(t, statemachine.State("b"), res.From)
		assert.Equal(t, "c", res.Entity.State)
	})

	t.Run("initial defaults to first state", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition("a", "b"),
		)
		assert.Equal(t, statemachine.State("a"), m.Initial())

		res := statemachine.Transition(ctx, post{}, m, "b")
		assert.True(t, res.Accepted())
	})

	t.Run("rejection is stable across calls", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition("a", "b"),
		)

		first := statemachine.Transition(ctx, post{State: "b"}, m, "a")
		for range 5 {
			again := statemachine.Transition(ctx, post{State: "b"}, m, "a")
			assert.Equal(t, first.Reason(), again.Reason())
		}
	})
}

func TestTransition_Guard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("halt rejects with the guard reason", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithGuard(func(ctx context.Context, entity any, from, to statemachine.State) statemachine.Verdict {
				return statemachine.Halt("no")
			}),
		)

		res := statemachine.Transition(ctx, post{State: "a"}, m, "b")
		require.False(t, res.Accepted())
		assert.Equal(t, "no", res.Reason())
		assert.Equal(t, "no", res.Message())
		assert.True(t, statemachine.IsGuardHaltedError(res.Err()))
		assert.False(t, statemachine.IsNotReachableError(res.Err()))
	})

	t.Run("opaque reasons pass through", func(t *testing.T) {
		t.Parallel()
		type denial struct{ Code int }
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithGuard(func(ctx context.Context, entity any, from, to statemachine.State) statemachine.Verdict {
				return statemachine.Halt(denial{Code: 42})
			}),
		)

		res := statemachine.Transition(ctx, post{State: "a"}, m, "b")
		require.False(t, res.Accepted())
		assert.Equal(t, denial{Code: 42}, res.Reason())
	})

	t.Run("allow and zero verdict let the transition through", func(t *testing.T) {
		t.Parallel()
		for _, v := range []statemachine.Verdict{statemachine.Allow(), {}} {
			m := statemachine.MustNew(states("a", "b"),
				statemachine.WithTransition("a", "b"),
				statemachine.WithGuard(func(ctx context.Context, entity any, from, to statemachine.State) statemachine.Verdict {
					return v
				}),
			)
			res := statemachine.Transition(ctx, post{State: "a"}, m, "b")
			assert.True(t, res.Accepted())
		}
	})

	t.Run("guard sees the entity before the change", func(t *testing.T) {
		t.Parallel()
		var seen post
		var from, to statemachine.State
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithGuard(statemachine.GuardFor(func(ctx context.Context, p post, src, dst statemachine.State) statemachine.Verdict {
				seen, from, to = p, src, dst
				return statemachine.Allow()
			})),
		)

		res := statemachine.Transition(ctx, post{ID: 7}, m, "b")
		require.True(t, res.Accepted())
		assert.Equal(t, post{ID: 7}, seen)
		assert.Equal(t, statemachine.State("a"), from)
		assert.Equal(t, statemachine.State("b"), to)
	})

	t.Run("guard is not called for unreachable targets", func(t *testing.T) {
		t.Parallel()
		calls := 0
		m := statemachine.MustNew(states("a", "b", "c"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithGuard(func(ctx context.Context, entity any, from, to statemachine.State) statemachine.Verdict {
				calls++
				return statemachine.Allow()
			}),
		)

		res := statemachine.Transition(ctx, post{State: "a"}, m, "c")
		require.False(t, res.Accepted())
		assert.Equal(t, 0, calls)

		statemachine.Transition(ctx, post{State: "a"}, m, "b")
		assert.Equal(t, 1, calls)
	})

	t.Run("typed guard ignores other entity types", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithGuard(statemachine.GuardFor(func(ctx context.Context, p post, from, to statemachine.State) statemachine.Verdict {
				return statemachine.Halt("posts only")
			})),
		)

		res := statemachine.Transition(ctx, map[string]any{"state": "a"}, m, "b")
		assert.True(t, res.Accepted())
	})
}

func TestTransitionOrFail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := statemachine.MustNew(states("a", "b", "c"),
		statemachine.WithTransition("a", "b"),
		statemachine.WithTransition("b", "c"),
		statemachine.WithGuard(func(ctx context.Context, entity any, from, to statemachine.State) statemachine.Verdict {
			if to == "c" {
				return statemachine.Halt("c is closed")
			}
			return statemachine.Allow()
		}),
	)

	p, err := statemachine.TransitionOrFail(ctx, post{ID: 1, State: "a"}, m, "b")
	require.NoError(t, err)
	assert.Equal(t, post{ID: 1, State: "b"}, p)

	_, err = statemachine.TransitionOrFail(ctx, post{State: "a"}, m, "c")
	require.Error(t, err)
	assert.EqualError(t, err, "Cannot transition from 'a' to 'c'")
	assert.True(t, statemachine.IsNotReachableError(err))
	assert.True(t, statemachine.IsInvalidTransitionError(err))

	_, err = statemachine.TransitionOrFail(ctx, post{State: "b"}, m, "c")
	require.Error(t, err)
	assert.EqualError(t, err, "c is closed")
	assert.True(t, statemachine.IsGuardHaltedError(err))

	var terr *statemachine.InvalidTransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, statemachine.State("b"), terr.From)
	assert.Equal(t, statemachine.State("c"), terr.To)
}

func TestTransition_Entities(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := statemachine.MustNew(states("pending", "paid"),
		statemachine.WithField("status"),
		statemachine.WithTransition("pending", "paid"),
	)

	t.Run("tagged struct field", func(t *testing.T) {
		t.Parallel()
		o, err := statemachine.TransitionOrFail(ctx, order{ID: "o1", Status: "pending"}, m, "paid")
		require.NoError(t, err)
		assert.Equal(t, order{ID: "o1", Status: "paid"}, o)
	})

	t.Run("pointer entity is not mutated", func(t *testing.T) {
		t.Parallel()
		in := &order{ID: "o1"}
		out, err := statemachine.TransitionOrFail(ctx, in, m, "paid")
		require.NoError(t, err)
		assert.Equal(t, statemachine.State(""), in.Status)
		assert.Equal(t, statemachine.State("paid"), out.Status)
		assert.NotSame(t, in, out)
	})

	t.Run("map entity is cloned", func(t *testing.T) {
		t.Parallel()
		in := map[string]any{"status": "pending", "total": 10}
		out, err := statemachine.TransitionOrFail(ctx, in, m, "paid")
		require.NoError(t, err)
		assert.Equal(t, "pending", in["status"])
		assert.Equal(t, map[string]any{"status": "paid", "total": 10}, out)
	})

	t.Run("missing map key uses initial", func(t *testing.T) {
		t.Parallel()
		out, err := statemachine.TransitionOrFail(ctx, map[string]string{}, m, "paid")
		require.NoError(t, err)
		assert.Equal(t, "paid", out["status"])
	})

	t.Run("json tag and pointer field", func(t *testing.T) {
		t.Parallel()
		type invoice struct {
			Phase *string `json:"status,omitempty"`
		}
		out, err := statemachine.TransitionOrFail(ctx, invoice{}, m, "paid")
		require.NoError(t, err)
		require.NotNil(t, out.Phase)
		assert.Equal(t, "paid", *out.Phase)
	})

	t.Run("missing field", func(t *testing.T) {
		t.Parallel()
		res := statemachine.Transition(ctx, post{}, m, "paid")
		require.False(t, res.Accepted())
		assert.ErrorIs(t, res.Err(), statemachine.ErrFieldNotFound)
	})

	t.Run("non string field", func(t *testing.T) {
		t.Parallel()
		type counter struct{ Status int }
		_, err := statemachine.TransitionOrFail(ctx, counter{}, m, "paid")
		assert.ErrorIs(t, err, statemachine.ErrFieldNotString)
	})

	t.Run("stringer field is not a state and skips the guard", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		guarded := statemachine.MustNew(states("pending", "paid"),
			statemachine.WithField("status"),
			statemachine.WithTransition("pending", "paid"),
			statemachine.WithGuard(func(context.Context, any, statemachine.State, statemachine.State) statemachine.Verdict {
				calls.Add(1)
				return statemachine.Allow()
			}),
		)
		type ticket struct{ Status code }

		res := statemachine.Transition(ctx, ticket{Status: 1}, guarded, "paid")
		require.False(t, res.Accepted())
		assert.ErrorIs(t, res.Err(), statemachine.ErrFieldNotString)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("unwritable field skips the guard", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		guarded := statemachine.MustNew(states("pending", "paid"),
			statemachine.WithField("status"),
			statemachine.WithTransition("pending", "paid"),
			statemachine.WithGuard(func(context.Context, any, statemachine.State, statemachine.State) statemachine.Verdict {
				calls.Add(1)
				return statemachine.Allow()
			}),
		)
		type ticket struct{ Status fmt.Stringer }

		res := statemachine.Transition(ctx, ticket{Status: statemachine.State("pending")}, guarded, "paid")
		require.False(t, res.Accepted())
		assert.Equal(t, statemachine.State("pending"), res.From)
		assert.ErrorIs(t, res.Err(), statemachine.ErrFieldNotString)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("unsupported entity", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.TransitionOrFail(ctx, 42, m, "paid")
		assert.ErrorIs(t, err, statemachine.ErrUnsupportedEntity)

		_, err = statemachine.TransitionOrFail[*order](ctx, nil, m, "paid")
		assert.ErrorIs(t, err, statemachine.ErrUnsupportedEntity)
	})

	t.Run("nil machine", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.TransitionOrFail(ctx, order{}, nil, "paid")
		assert.ErrorIs(t, err, statemachine.ErrNilMachine)
	})
}

func TestMachine(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"))
		assert.Equal(t, statemachine.DefaultField, m.Field())
		assert.Equal(t, statemachine.State("a"), m.Initial())
		assert.Empty(t, m.Transitions())
	})

	t.Run("accessors return copies", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"), statemachine.WithTransition("a", "b"))

		s := m.States()
		s[0] = "mutated"
		tr := m.Transitions()
		tr["a"][0] = "mutated"

		assert.Equal(t, states("a", "b"), m.States())
		assert.Equal(t, states("b"), m.Transitions()["a"])
	})

	t.Run("candidates", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b", "c"),
			statemachine.WithTransitions(map[statemachine.State][]statemachine.State{
				"a":              {"b"},
				statemachine.Any: {statemachine.Any},
			}),
		)
		assert.ElementsMatch(t, states("b", "a", "b", "c"), m.Candidates("a"))
		assert.ElementsMatch(t, states("a", "b", "c"), m.Candidates("z"))
		assert.True(t, m.CanTransition("c", "a"))
	})

	t.Run("repeated rules accumulate", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b", "c"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithTransition("a", "c"),
		)
		assert.True(t, m.CanTransition("a", "b"))
		assert.True(t, m.CanTransition("a", "c"))
	})

	t.Run("empty field is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(states("a"), statemachine.WithField(""))
		assert.ErrorIs(t, err, statemachine.ErrInvalidDefinition)
	})

	t.Run("must new panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			statemachine.MustNew(states("a"), statemachine.WithTransition(""))
		})
	})

	t.Run("concurrent use", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(states("a", "b"), statemachine.WithTransition("a", "b"))
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := statemachine.Transition(context.Background(), post{State: "a"}, m, "b")
				assert.True(t, res.Accepted())
			}()
		}
		wg.Wait()
	})
}

func TestMachine_Validate(t *testing.T) {
	t.Parallel()

	t.Run("permissive by default", func(t *testing.T) {
		t.Parallel()
		m, err := statemachine.New(states("a", "b"),
			statemachine.WithInitial("ghost"),
			statemachine.WithTransition("a", "nowhere"),
		)
		require.NoError(t, err)

		res := statemachine.Transition(context.Background(), post{}, m, "b")
		assert.Equal(t, "Cannot transition from 'ghost' to 'b'", res.Reason())

		verrs := validator.ExtractValidationErrors(m.Validate())
		require.NotNil(t, verrs)
		assert.True(t, verrs.Has("initial"))
		assert.True(t, verrs.Has("transitions.a"))
	})

	t.Run("strict validation fails construction", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(states("a", "a"),
			statemachine.WithStrictValidation(),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, statemachine.ErrInvalidDefinition)
		assert.True(t, validator.IsValidationError(err))
		assert.True(t, validator.ExtractValidationErrors(err).Has("states"))
	})

	t.Run("no states", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(nil)
		verrs := validator.ExtractValidationErrors(m.Validate())
		assert.True(t, verrs.Has("states"))
	})

	t.Run("valid definition", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(states("a", "b"),
			statemachine.WithTransition("a", "b"),
			statemachine.WithTransition(statemachine.Any, statemachine.Any),
			statemachine.WithStrictValidation(),
		)
		assert.NoError(t, err)
	})
}

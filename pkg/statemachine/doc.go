// Package statemachine validates state transitions against a declarative
// machine definition.
//
// A Machine bundles the name of the entity field that holds state, the
// declared states, the initial state, a transition map, and an optional
// guard. Machines are built once, never change, and carry no per-entity
// state, so a single value can be shared by any number of goroutines.
//
// # Transition rules
//
// Each rule maps a source selector to destinations. The source is either a
// concrete state or Any; the destinations are one state, several states, or
// Any, which expands to every declared state (the source included). For a
// given current state, rules keyed by that state and rules keyed by Any both
// apply and their destinations are unioned:
//
//	orders := statemachine.MustNew(
//	    []statemachine.State{"pending", "paid", "shipped", "cancelled"},
//	    statemachine.WithField("status"),
//	    statemachine.WithTransition("pending", "paid"),
//	    statemachine.WithTransition("paid", "shipped"),
//	    statemachine.WithTransition(statemachine.Any, "cancelled"),
//	)
//
// # Deciding a transition
//
// Transition takes an entity by value and returns a Result. The entity can be
// a struct, a pointer to a struct, or a map with string keys. Struct fields
// are matched by the "fsm" tag, then the "json" tag, then by name. An empty
// or missing state value resolves to the machine's initial state.
//
//	res := statemachine.Transition(ctx, order, orders, "paid")
//	if !res.Accepted() {
//	    return res.Err()
//	}
//	order = res.Entity
//
// TransitionOrFail returns (entity, error) instead.
//
// # Guards
//
// A machine may carry one Guard. It runs only when the target is reachable
// and returns Allow or Halt(reason). The reason is passed back to the caller
// untouched:
//
//	statemachine.WithGuard(statemachine.GuardFor(func(ctx context.Context, o Order, from, to statemachine.State) statemachine.Verdict {
//	    if to == "shipped" && o.Address == "" {
//	        return statemachine.Halt("missing shipping address")
//	    }
//	    return statemachine.Allow()
//	}))
//
// # Error Handling
//
// Rejections surface as *InvalidTransitionError. Its message is the
// rejection reason; unreachable targets read
// "Cannot transition from '<current>' to '<target>'". Use
// IsNotReachableError and IsGuardHaltedError to tell the two apart.
//
// # Definition checks
//
// New accepts inconsistent definitions (an initial state that is not
// declared, destinations that name unknown states); such machines simply
// reject the affected transitions. Validate reports these problems as
// validator.ValidationErrors, and WithStrictValidation makes New fail on them.
package statemachine

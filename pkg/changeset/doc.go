// Package changeset turns transition decisions into change records for a
// persistence layer.
//
// The persistence collaborator is described by the Tracker interface: it can
// resolve a pending-change value to the entity it would produce, record field
// updates, and attach field-scoped errors. TransitionWith runs
// statemachine.Transition against the resolved entity, so guards see the
// would-be state rather than the stored one, and then either records the new
// state on the original input or marks it invalid on the state field. It adds
// no rules of its own.
//
// Changeset and Memory are a ready-made in-memory collaborator:
//
//	cs := changeset.Cast(order).Put("address", "1 Main St")
//	cs = changeset.Transition(ctx, cs, orders, "shipped")
//	if !cs.Valid() {
//	    return cs.Err() // validator.ValidationErrors keyed by the state field
//	}
//	updated, err := cs.Apply()
package changeset

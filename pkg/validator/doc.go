// Package validator provides field-scoped validation errors and a handful of
// composable rules.
//
// A Rule pairs a Check with the ValidationError reported when it fails. Apply
// evaluates rules and aggregates failures into ValidationErrors, which
// implements error and can be recovered with ExtractValidationErrors:
//
//	err := validator.Apply(
//	    validator.RequiredSlice("states", states),
//	    validator.InList("initial", initial, states),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs.Has("initial") {
//	    // ...
//	}
package validator

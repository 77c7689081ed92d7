// Package definition loads statemachine machines from YAML documents.
//
// Guards are Go functions and cannot live in YAML, so a document refers to
// them by name and the caller supplies the implementations with WithGuards.
// A reference to an unregistered guard fails the load.
package definition

// Package errors provides standardized error handling for the Lumino node
// core: classification into transient, invalid, and fatal errors, standard
// error variables, and helpers for consistent error wrapping.
//
// Handlers in this repository never retry; classification exists so the
// surrounding service and its collaborators can decide what to do with a
// propagated failure.
package errors

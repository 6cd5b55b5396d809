// Package errors provides structured error types for the typebind module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the Go and host type names, a name path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindTypeMismatch).
//		Path("sequence<s32>", "push-back").
//		GoType("string").
//		HostType("s32").
//		Detail("element argument has the wrong type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AlreadyDefined(errors.PhaseDefine, "mapping", "sequence<s32>")
//	err := errors.Constraint("resize", -1, "count must be non-negative")
//
// Instantiations requested outside the element type's home scope fail with
// a *ScopeMismatchError carrying both scopes.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

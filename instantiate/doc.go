// Package instantiate creates host bindings for generic native types on demand.
//
// An Engine pairs a host TypeSystem with a registry.Registry and a set of
// KindBuilders, one per generic kind. The first request for an
// instantiation resolves its element type (instantiating nested generics
// first), checks the requesting scope with a Guard, defines the host types
// for every layout and binds the kind's method table. Later requests are
// served from the registry.
//
// Static is the per-instantiation accessor:
//
//	seq := instantiate.StaticFor[int32](eng, registry.KindSequence)
//	vt, err := seq.ValueType()     // instantiates on first call
//	rt, err := seq.ReferenceType() // cached
//
// By default an instantiation must be requested from the scope that owns
// its element type; other scopes get a *errors.ScopeMismatchError.
// A kind builder that fails to populate a layout is a programming error
// and the accessors panic with a KindBuilderIncomplete error.
package instantiate

// Package typebind binds Go types into a scoped host type system and
// lazily instantiates generic host types over them.
//
// A module declares its native element types inside its own scope. A
// generic kind such as sequence is then instantiated over an element
// type on first use, producing three host types (value, reference and
// allocated layouts) with bound methods. Instantiations are cached for
// the life of a session and are only ever created from the scope that
// owns the element type.
//
// # Package Layout
//
//	typebind/
//	├── errors/       Structured error types with phase and kind
//	├── hosttype/     Scopes, layouts, host types and the type universe
//	├── registry/     Instantiation cache keyed by generic kind and element
//	├── instantiate/  Lazy instantiation engine and scope guards
//	├── sequence/     The sequence kind: Vector, packed BitVector, methods
//	├── resource/     Handle table for host values passed to wasm guests
//	├── wasmhost/     Exports sequence mappings as wazero host modules
//	├── manifest/     YAML manifest describing modules to load
//	├── loader/       Session: std module, module loading, manifests
//	└── cmd/typebind/ CLI and interactive browser
//
// # Quick Start
//
//	s, err := loader.New(loader.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	err = s.LoadModule("example:geo@0.1.0", func(m *loader.Module) error {
//	    if _, err := loader.Declare[Meters](m, "meters", wit.F64{}); err != nil {
//	        return err
//	    }
//	    _, err := loader.Sequence[Meters](m)
//	    return err
//	})
//
// Once created, an instantiation is reachable from any scope:
//
//	vt, err := s.Static(registry.KeyFor[Meters](registry.KindSequence)).ValueType()
//	size, err := vt.Call(ctx, sequence.MethodSize, v)
//
// # Sequence Methods
//
// Every sequence type binds size, resize, append, push-back, getindex and
// setindex. Indexes are one-based. Sequences of bool use a packed
// representation where getindex returns a copy; all other element types
// return a pointer to the stored slot.
//
// # Scopes
//
// Scopes are versioned identifiers of the form namespace:package@version.
// The std scope owns the builtin elements (bool, s32, s64, f32, f64,
// string) and by default instantiates their sequences when the session
// starts. A module that asks for a new instantiation over an element
// owned by another scope fails with a ScopeMismatchError, and the rest of
// that module's registration is skipped.
package typebind

// Package hosttype models the host runtime's side of a binding: scopes,
// native type descriptors, host type objects and their method tables.
//
// The TypeSystem interface is what the instantiation engine consumes.
// Universe is the in-memory implementation used by sessions and tests:
//
//	u := hosttype.NewUniverse()
//	scope := hosttype.MustScope("example:geo@0.1.0")
//	u.Declare(reflect.TypeFor[int32](), "meters", scope, wit.S32{})
//
//	leave := u.EnterScope(scope)
//	defer leave()
//
// Every host type carries a WIT shape. A type is defined once per
// (scope, name, layout); definitions are never retracted.
package hosttype

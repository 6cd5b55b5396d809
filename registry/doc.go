// Package registry stores the instantiations of generic native types.
//
// A Key names one instantiation (generic kind plus element Go type). The
// Registry maps each Key to exactly one Mapping holding the host type
// handles for the value, reference and allocated layouts:
//
//	reg := registry.New()
//	key := registry.KeyFor[int32](registry.KindSequence)
//
//	m, created, err := reg.Instantiate(key, build)
//
// Define is the raw insertion primitive and rejects duplicates.
// Instantiate is the normal path: it checks the cache, then runs Define
// single-flight so concurrent requests for one key never collide.
//
// Mappings are insert-only. Handles inside a Mapping move from nil to a
// value once and never change again.
package registry

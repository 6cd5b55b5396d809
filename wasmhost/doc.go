// Package wasmhost exposes sequence instantiations to WebAssembly guests as
// wazero host modules.
//
// Each scope becomes one module named "<namespace:package>/sequences@<version>".
// A sequence over a core wasm scalar (bool, s32, s64, f32, f64) is exported
// as a resource: a constructor, a drop function and one [method] function per
// bound method. Guests hold i32 handles into a resource.Table; method calls
// borrow the handle for their duration. Any failure traps the guest.
package wasmhost

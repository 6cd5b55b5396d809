// Package loader drives module registration against a type-binding
// session.
//
// A Session is the explicit context that owns the host type universe, the
// mapping registry and the instantiation engine. Modules register inside
// LoadModule, which makes the module's scope current so instantiations are
// checked against it:
//
//	s, err := loader.New(loader.DefaultOptions())
//	err = s.LoadModule("example:geo@0.1.0", func(m *loader.Module) error {
//	    if _, err := loader.Declare[Meters](m, "meters", wit.F64{}); err != nil {
//	        return err
//	    }
//	    _, err := loader.Sequence[Meters](m)
//	    return err
//	})
//
// Manifests (package manifest) drive the same calls from YAML via Apply.
package loader

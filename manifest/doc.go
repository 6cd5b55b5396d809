// Package manifest parses the YAML files that drive a loader session.
//
//	std:
//	  scope: typebind:std@0.1.0
//	modules:
//	  - scope: example:geo@0.1.0
//	    declare:
//	      - {name: meters, go: meters, shape: f64}
//	    sequences: [meters, sequence<meters>]
//
// The "go" key of a declaration names an entry of the loader's native
// catalogue; manifests cannot introduce new Go types.
package manifest

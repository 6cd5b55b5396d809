package loader

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/instantiate"
	"github.com/wippyai/typebind/manifest"
	"github.com/wippyai/typebind/sequence"
)

// Options configures a Session.
type Options struct {
	// Logger receives session events. Nil uses the package logger.
	Logger *zap.Logger

	// Guard validates instantiation scopes. Nil selects instantiate.SameScope.
	Guard instantiate.Guard

	// Natives is the catalogue manifests declare Go types from.
	Natives map[string]Native

	// StdScope owns the builtin element types.
	StdScope hosttype.Scope

	// Preinstantiate creates sequences of every builtin element while the
	// std module loads.
	Preinstantiate bool
}

// DefaultOptions returns default session configuration.
func DefaultOptions() Options {
	return Options{
		Guard:          instantiate.SameScope{},
		StdScope:       manifest.DefaultStdScope,
		Preinstantiate: true,
	}
}

// WithManifest returns a copy of o using the std settings of m.
func (o Options) WithManifest(m *manifest.Manifest) Options {
	o.StdScope = hosttype.Scope(m.Std.Scope)
	o.Preinstantiate = m.PreinstantiateStd()
	return o
}

// Native is a catalogue entry: a Go type plus the hook that enables
// sequences over it.
type Native struct {
	Type    reflect.Type
	support func(*sequence.Kind)
}

// NativeOf returns the catalogue entry for T. Sequences of T and of
// sequences of T are supported once it is declared.
func NativeOf[T any]() Native {
	return Native{Type: reflect.TypeFor[T](), support: sequence.SupportNested[T]}
}

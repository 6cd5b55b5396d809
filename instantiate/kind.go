package instantiate

import (
	"reflect"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/registry"
)

// KindBuilder knows how to bind one generic kind for any supported element.
type KindBuilder interface {
	// Kind returns the generic kind this builder serves.
	Kind() registry.GenericKind

	// TypeName returns the host name of the instantiation over elem.
	TypeName(elem hosttype.Descriptor) string

	// ValueShape returns the WIT shape of the value layout.
	ValueShape(name string, elem hosttype.Descriptor) wit.Type

	// Layouts returns the layouts the builder populates. LayoutValue must
	// be among them.
	Layouts() []hosttype.Layout

	// ElementOf reports whether goType is a native instantiation of this
	// kind and returns its element type.
	ElementOf(goType reflect.Type) (reflect.Type, bool)

	// Supports reports whether BindMethods can build a method table for
	// instantiations over elem. It is checked before any host type is defined.
	Supports(elem reflect.Type) bool

	// BindMethods attaches the kind's method table to every populated handle.
	BindMethods(ts hosttype.TypeSystem, m *registry.Mapping) error
}

package registry

import (
	"reflect"
	"strconv"
)

// GenericKind identifies a generic container shape independent of its
// element type. Kinds are fixed at build time.
type GenericKind uint8

const (
	// KindSequence is a resizable sequence (vector-of-T).
	KindSequence GenericKind = iota + 1
)

func (k GenericKind) String() string {
	switch k {
	case KindSequence:
		return "sequence"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Key identifies one instantiation: kind G applied to element type T.
// Keys are comparable and hash structurally, so two keys built for the
// same pair from different call sites are equal.
type Key struct {
	Elem reflect.Type
	Kind GenericKind
}

// NewKey returns the key for kind applied to elem.
func NewKey(kind GenericKind, elem reflect.Type) Key {
	return Key{Elem: elem, Kind: kind}
}

// KeyFor returns the key for kind applied to T.
func KeyFor[T any](kind GenericKind) Key {
	return Key{Elem: reflect.TypeFor[T](), Kind: kind}
}

func (k Key) String() string {
	elem := "<nil>"
	if k.Elem != nil {
		elem = k.Elem.String()
	}
	return k.Kind.String() + "<" + elem + ">"
}

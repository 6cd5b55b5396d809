package sequence

import (
	"reflect"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/instantiate"
	"github.com/wippyai/typebind/registry"
)

// variant is the storage and method table used for one element type.
type variant struct {
	storage reflect.Type
	create  func() any
	bind    func(ts hosttype.TypeSystem, t *hosttype.Type) error
	packed  bool
}

// Kind builds resizable-sequence instantiations.
// Thread-safe.
type Kind struct {
	byElem    map[reflect.Type]*variant
	byStorage map[reflect.Type]reflect.Type
	mu        sync.RWMutex
}

var _ instantiate.KindBuilder = (*Kind)(nil)

// NewKind returns a builder supporting the builtin element types and one
// level of nesting over them.
func NewKind() *Kind {
	k := &Kind{
		byElem:    make(map[reflect.Type]*variant),
		byStorage: make(map[reflect.Type]reflect.Type),
	}
	SupportNested[bool](k)
	SupportNested[int32](k)
	SupportNested[float64](k)
	SupportNested[float32](k)
	SupportNested[int64](k)
	SupportNested[string](k)
	return k
}

// Support enables sequences of T. Sequences of bool use the packed
// BitVector variant; every other element uses Vector[T].
func Support[T any](k *Kind) {
	elem := reflect.TypeFor[T]()
	if elem == reflect.TypeFor[bool]() {
		k.add(elem, &variant{
			storage: reflect.TypeFor[*BitVector](),
			create:  func() any { return NewBitVector() },
			bind:    bindBits,
			packed:  true,
		})
		return
	}
	k.add(elem, &variant{
		storage: reflect.TypeFor[*Vector[T]](),
		create:  func() any { return NewVector[T]() },
		bind:    bindVector[T],
	})
}

// SupportNested enables sequences of T and sequences of sequences of T.
func SupportNested[T any](k *Kind) {
	Support[T](k)
	if reflect.TypeFor[T]() == reflect.TypeFor[bool]() {
		Support[*BitVector](k)
		return
	}
	Support[*Vector[T]](k)
}

func (k *Kind) add(elem reflect.Type, v *variant) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.byElem[elem] = v
	k.byStorage[v.storage] = elem
}

func (k *Kind) variant(elem reflect.Type) (*variant, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.byElem[elem]
	return v, ok
}

// Kind implements instantiate.KindBuilder.
func (k *Kind) Kind() registry.GenericKind {
	return registry.KindSequence
}

// TypeName implements instantiate.KindBuilder.
func (k *Kind) TypeName(elem hosttype.Descriptor) string {
	return "sequence<" + elem.Name + ">"
}

// ValueShape implements instantiate.KindBuilder.
func (k *Kind) ValueShape(name string, elem hosttype.Descriptor) wit.Type {
	return &wit.TypeDef{Name: &name, Kind: &wit.List{Type: elem.WIT}}
}

// Layouts implements instantiate.KindBuilder.
func (k *Kind) Layouts() []hosttype.Layout {
	return []hosttype.Layout{hosttype.LayoutValue, hosttype.LayoutReference, hosttype.LayoutAllocated}
}

// ElementOf implements instantiate.KindBuilder.
func (k *Kind) ElementOf(goType reflect.Type) (reflect.Type, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	elem, ok := k.byStorage[goType]
	return elem, ok
}

// Supports implements instantiate.KindBuilder.
func (k *Kind) Supports(elem reflect.Type) bool {
	_, ok := k.variant(elem)
	return ok
}

// StorageOf returns the native storage type used for sequences of elem.
func (k *Kind) StorageOf(elem reflect.Type) (reflect.Type, bool) {
	v, ok := k.variant(elem)
	if !ok {
		return nil, false
	}
	return v.storage, true
}

// Packed reports whether sequences of elem use copy-only element access.
func (k *Kind) Packed(elem reflect.Type) bool {
	v, ok := k.variant(elem)
	return ok && v.packed
}

// NewInstance creates an empty native sequence of elem.
func (k *Kind) NewInstance(elem reflect.Type) (any, error) {
	v, ok := k.variant(elem)
	if !ok {
		return nil, unsupportedElem(elem)
	}
	return v.create(), nil
}

// BindMethods implements instantiate.KindBuilder.
func (k *Kind) BindMethods(ts hosttype.TypeSystem, m *registry.Mapping) error {
	v, ok := k.variant(m.Key().Elem)
	if !ok {
		return unsupportedElem(m.Key().Elem)
	}
	for _, layout := range k.Layouts() {
		t := m.Handle(layout)
		if t == nil {
			continue
		}
		if err := v.bind(ts, t); err != nil {
			return err
		}
	}
	return nil
}

func unsupportedElem(elem reflect.Type) error {
	return errors.New(errors.PhaseBind, errors.KindUnsupported).
		GoType(elem.String()).
		Detail("no sequence variant for element type").
		Build()
}

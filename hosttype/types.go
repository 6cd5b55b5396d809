package hosttype

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typebind/errors"
)

// Layout selects how host instances of a type relate to native storage.
type Layout uint8

const (
	// LayoutValue is a host-owned instance.
	LayoutValue Layout = iota
	// LayoutReference is a non-owning view over a native-owned instance.
	LayoutReference
	// LayoutAllocated is a host-managed instance destroyed by a finalizer.
	LayoutAllocated

	NumLayouts = 3
)

func (l Layout) String() string {
	switch l {
	case LayoutValue:
		return "value"
	case LayoutReference:
		return "reference"
	case LayoutAllocated:
		return "allocated"
	default:
		return "unknown"
	}
}

// Descriptor is the stable identity of a native type as seen by the host.
type Descriptor struct {
	GoType reflect.Type
	WIT    wit.Type
	Name   string
	Scope  Scope
}

// Method is a native operation bound to a host type. recv is the native
// instance the host passes in; argument marshalling happened before the call.
type Method func(ctx context.Context, recv any, args ...any) (any, error)

// Type is a host-visible type object. Its identity is its pointer.
type Type struct {
	WIT     wit.Type
	methods map[string]Method
	Name    string
	Scope   Scope
	ID      uint32
	Layout  Layout
	mu      sync.RWMutex
}

// Method returns the named method.
func (t *Type) Method(name string) (Method, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.methods[name]
	return m, ok
}

// MethodNames returns the bound method names in sorted order.
func (t *Type) MethodNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.methods))
	for name := range t.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the named method on recv.
func (t *Type) Call(ctx context.Context, name string, recv any, args ...any) (any, error) {
	m, ok := t.Method(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseOperation, "method", t.Name+"."+name)
	}
	return m(ctx, recv, args...)
}

func (t *Type) String() string {
	return t.Name + " (" + t.Layout.String() + ", " + string(t.Scope) + ")"
}

func (t *Type) bind(name string, m Method) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.methods[name]; exists {
		return errors.AlreadyDefined(errors.PhaseBind, "method", t.Name+"."+name)
	}
	t.methods[name] = m
	return nil
}

// TypeSystem is the host runtime's type table as consumed by the
// instantiation engine.
type TypeSystem interface {
	// Resolve returns the descriptor of a declared native type.
	Resolve(goType reflect.Type) (Descriptor, bool)

	// DefineType allocates a new host type object. Definitions are permanent.
	DefineType(name string, layout Layout, scope Scope, shape wit.Type) (*Type, error)

	// BindMethod attaches a callable operation to a host type.
	BindMethod(t *Type, name string, m Method) error

	// CurrentScope returns the scope of the active registration step,
	// or "" when no module is being loaded.
	CurrentScope() Scope
}

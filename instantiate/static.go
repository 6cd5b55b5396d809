package instantiate

import (
	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/registry"
)

// Static resolves the host types of one instantiation, creating the
// binding on first use. It holds no state besides its key.
type Static struct {
	engine *Engine
	key    registry.Key
}

// Static returns the dispatcher for key.
func (e *Engine) Static(key registry.Key) Static {
	return Static{engine: e, key: key}
}

// StaticFor returns the dispatcher for kind applied to T.
func StaticFor[T any](e *Engine, kind registry.GenericKind) Static {
	return e.Static(registry.KeyFor[T](kind))
}

// Key returns the instantiation key.
func (s Static) Key() registry.Key {
	return s.key
}

// Mapping returns the instantiation's mapping.
func (s Static) Mapping() (*registry.Mapping, error) {
	if m, ok := s.engine.reg.Lookup(s.key); ok {
		return m, nil
	}
	return s.engine.Instantiate(s.key)
}

// ValueType returns the host-owned instance type.
func (s Static) ValueType() (*hosttype.Type, error) {
	return s.handle(hosttype.LayoutValue)
}

// ReferenceType returns the type of non-owning views over native instances.
// It panics if the kind builder did not populate it.
func (s Static) ReferenceType() (*hosttype.Type, error) {
	return s.handle(hosttype.LayoutReference)
}

// AllocatedType returns the type of host-managed instances destroyed by a
// finalizer. It panics if the kind builder did not populate it.
func (s Static) AllocatedType() (*hosttype.Type, error) {
	return s.handle(hosttype.LayoutAllocated)
}

func (s Static) handle(layout hosttype.Layout) (*hosttype.Type, error) {
	m, err := s.Mapping()
	if err != nil {
		return nil, err
	}
	return requireHandle(m, layout), nil
}

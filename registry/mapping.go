package registry

import (
	"sync/atomic"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
)

// Mapping is the binding of one Key to its host type handles.
// Each handle cell is written at most once; readers need no locking.
type Mapping struct {
	handles [hosttype.NumLayouts]atomic.Pointer[hosttype.Type]
	elem    hosttype.Descriptor
	key     Key
	scope   hosttype.Scope
}

// NewMapping creates a mapping with no handles populated.
func NewMapping(key Key, scope hosttype.Scope, elem hosttype.Descriptor) *Mapping {
	return &Mapping{key: key, scope: scope, elem: elem}
}

// Key returns the instantiation key.
func (m *Mapping) Key() Key { return m.key }

// Scope returns the scope that owns the instantiation.
func (m *Mapping) Scope() hosttype.Scope { return m.scope }

// Element returns the element type descriptor.
func (m *Mapping) Element() hosttype.Descriptor { return m.elem }

// Set populates the handle for layout. Setting the same handle again is a
// no-op; replacing a populated handle fails.
func (m *Mapping) Set(layout hosttype.Layout, t *hosttype.Type) error {
	if layout >= hosttype.NumLayouts {
		return errors.InvalidInput(errors.PhaseDefine, "unknown layout "+layout.String())
	}
	if t == nil {
		return errors.InvalidInput(errors.PhaseDefine, "handle cannot be nil")
	}
	cell := &m.handles[layout]
	if cell.CompareAndSwap(nil, t) || cell.Load() == t {
		return nil
	}
	return errors.AlreadyDefined(errors.PhaseDefine, layout.String()+" handle", m.key.String())
}

// Handle returns the handle for layout, or nil if it was never populated.
func (m *Mapping) Handle(layout hosttype.Layout) *hosttype.Type {
	if layout >= hosttype.NumLayouts {
		return nil
	}
	return m.handles[layout].Load()
}

// Value returns the host-owned instance type.
func (m *Mapping) Value() *hosttype.Type { return m.Handle(hosttype.LayoutValue) }

// Reference returns the non-owning view type.
func (m *Mapping) Reference() *hosttype.Type { return m.Handle(hosttype.LayoutReference) }

// Allocated returns the finalized, host-managed instance type.
func (m *Mapping) Allocated() *hosttype.Type { return m.Handle(hosttype.LayoutAllocated) }

// Name returns the host name of the instantiation.
func (m *Mapping) Name() string {
	if v := m.Value(); v != nil {
		return v.Name
	}
	return m.key.String()
}

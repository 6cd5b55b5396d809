package instantiate

import (
	"reflect"
	"sort"
	"sync"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/registry"
)

// Options configures engine behavior.
type Options struct {
	// Guard validates instantiation scopes. Nil selects SameScope.
	Guard Guard
}

// DefaultOptions returns default engine configuration.
func DefaultOptions() Options {
	return Options{Guard: SameScope{}}
}

// Engine creates host bindings for generic instantiations on demand.
// Thread-safe.
type Engine struct {
	types hosttype.TypeSystem
	reg   *registry.Registry
	guard Guard
	kinds map[registry.GenericKind]KindBuilder
	mu    sync.RWMutex
}

// New creates an engine that defines host types in ts and records
// mappings in reg.
func New(ts hosttype.TypeSystem, reg *registry.Registry, opts Options) *Engine {
	guard := opts.Guard
	if guard == nil {
		guard = SameScope{}
	}
	return &Engine{
		types: ts,
		reg:   reg,
		guard: guard,
		kinds: make(map[registry.GenericKind]KindBuilder),
	}
}

// Registry returns the mapping registry.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Types returns the host type system.
func (e *Engine) Types() hosttype.TypeSystem {
	return e.types
}

// RegisterKind adds the builder for a generic kind.
func (e *Engine) RegisterKind(kb KindBuilder) error {
	if kb == nil {
		return errors.InvalidInput(errors.PhaseInstantiate, "kind builder cannot be nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.kinds[kb.Kind()]; exists {
		return errors.AlreadyDefined(errors.PhaseInstantiate, "kind", kb.Kind().String())
	}
	e.kinds[kb.Kind()] = kb
	return nil
}

func (e *Engine) kind(k registry.GenericKind) (KindBuilder, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	kb, ok := e.kinds[k]
	return kb, ok
}

func (e *Engine) sortedKinds() []KindBuilder {
	e.mu.RLock()
	out := make([]KindBuilder, 0, len(e.kinds))
	for _, kb := range e.kinds {
		out = append(out, kb)
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })
	return out
}

// Instantiate returns the mapping for key, creating it in the current
// scope on first request. Creation runs at most once per key.
func (e *Engine) Instantiate(key registry.Key) (*registry.Mapping, error) {
	if m, ok := e.reg.Lookup(key); ok {
		return m, nil
	}
	if key.Elem == nil {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, "key has no element type")
	}

	kb, ok := e.kind(key.Kind)
	if !ok {
		return nil, errors.NotFound(errors.PhaseInstantiate, "generic kind", key.Kind.String())
	}

	elem, err := e.Resolve(key.Elem)
	if err != nil {
		return nil, err
	}

	if !kb.Supports(key.Elem) {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindUnsupported).
			GoType(key.Elem.String()).
			HostType(kb.TypeName(elem)).
			Detail("no %s variant for element type", key.Kind).
			Build()
	}

	requesting := e.types.CurrentScope()
	if err := e.guard.Check(elem, requesting); err != nil {
		Logger().Debug("instantiation rejected",
			zap.Stringer("key", key),
			zap.String("element_scope", string(elem.Scope)),
			zap.String("requesting_scope", string(requesting)),
			zap.Error(err),
		)
		return nil, err
	}

	m, created, err := e.reg.Instantiate(key, func(k registry.Key) (*registry.Mapping, error) {
		return e.build(kb, k, elem)
	})
	if err != nil {
		return nil, err
	}
	if created {
		Logger().Info("instantiated",
			zap.String("name", m.Name()),
			zap.String("scope", string(m.Scope())),
			zap.Stringer("key", key),
		)
	}
	return m, nil
}

// Resolve returns the host descriptor of a native type. Native
// instantiations of a registered kind are instantiated first.
func (e *Engine) Resolve(goType reflect.Type) (hosttype.Descriptor, error) {
	if goType == nil {
		return hosttype.Descriptor{}, errors.InvalidInput(errors.PhaseResolve, "Go type cannot be nil")
	}
	if d, ok := e.types.Resolve(goType); ok {
		return d, nil
	}

	for _, kb := range e.sortedKinds() {
		elem, ok := kb.ElementOf(goType)
		if !ok {
			continue
		}
		m, err := e.Instantiate(registry.NewKey(kb.Kind(), elem))
		if err != nil {
			return hosttype.Descriptor{}, err
		}
		v := requireHandle(m, hosttype.LayoutValue)
		return hosttype.Descriptor{
			GoType: goType,
			WIT:    v.WIT,
			Name:   v.Name,
			Scope:  m.Scope(),
		}, nil
	}

	return hosttype.Descriptor{}, errors.New(errors.PhaseResolve, errors.KindNotFound).
		GoType(goType.String()).
		Detail("native type is not mapped to the host").
		Build()
}

func (e *Engine) build(kb KindBuilder, key registry.Key, elem hosttype.Descriptor) (*registry.Mapping, error) {
	name := kb.TypeName(elem)
	m := registry.NewMapping(key, elem.Scope, elem)

	resName := name
	res := &wit.TypeDef{Name: &resName, Kind: &wit.Resource{}}

	for _, layout := range kb.Layouts() {
		var shape wit.Type
		switch layout {
		case hosttype.LayoutValue:
			shape = kb.ValueShape(name, elem)
		case hosttype.LayoutReference:
			shape = &wit.TypeDef{Kind: &wit.Borrow{Type: res}}
		case hosttype.LayoutAllocated:
			shape = &wit.TypeDef{Kind: &wit.Own{Type: res}}
		default:
			return nil, errors.InvalidInput(errors.PhaseInstantiate, "unknown layout "+layout.String())
		}

		t, err := e.types.DefineType(name, layout, elem.Scope, shape)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindRegistration, err, "define "+layout.String()+" type "+name)
		}
		if err := m.Set(layout, t); err != nil {
			return nil, err
		}
	}

	if err := kb.BindMethods(e.types, m); err != nil {
		return nil, errors.Wrap(errors.PhaseBind, errors.KindRegistration, err, "bind methods of "+name)
	}
	return m, nil
}

// requireHandle returns the handle for layout or panics with a
// KindBuilderIncomplete error.
func requireHandle(m *registry.Mapping, layout hosttype.Layout) *hosttype.Type {
	t := m.Handle(layout)
	if t == nil {
		panic(errors.BuilderIncomplete(m.Key().String(), layout.String()))
	}
	return t
}

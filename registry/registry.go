package registry

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wippyai/typebind/errors"
)

// Builder creates the mapping for a key. It runs at most once per
// successful definition and may instantiate other keys.
type Builder func(Key) (*Mapping, error)

// Registry owns every Key to Mapping binding of a session.
// Entries are inserted once and never replaced or removed.
// Thread-safe.
type Registry struct {
	entries sync.Map // Key -> *Mapping
	ids     sync.Map // Key -> string, single-flight group keys
	pending map[Key]struct{}
	flight  singleflight.Group
	nextID  atomic.Uint64
	count   atomic.Int64
	mu      sync.Mutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		pending: make(map[Key]struct{}),
	}
}

// Lookup returns the mapping for key without side effects.
func (r *Registry) Lookup(key Key) (*Mapping, bool) {
	v, ok := r.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Mapping), true
}

// Define runs builder and stores its mapping. It fails with
// KindAlreadyDefined if key is already present or is being defined by
// another caller (including a builder re-entering for its own key).
// A failing builder leaves no entry behind.
func (r *Registry) Define(key Key, builder Builder) (*Mapping, error) {
	if key.Elem == nil {
		return nil, errors.InvalidInput(errors.PhaseDefine, "key has no element type")
	}
	if builder == nil {
		return nil, errors.InvalidInput(errors.PhaseDefine, "builder cannot be nil")
	}

	r.mu.Lock()
	if _, exists := r.entries.Load(key); exists {
		r.mu.Unlock()
		return nil, errors.AlreadyDefined(errors.PhaseDefine, "mapping", key.String())
	}
	if _, busy := r.pending[key]; busy {
		r.mu.Unlock()
		return nil, errors.New(errors.PhaseDefine, errors.KindAlreadyDefined).
			HostType(key.String()).
			Detail("definition already in progress").
			Build()
	}
	r.pending[key] = struct{}{}
	r.mu.Unlock()

	m, err := builder(key)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, key)

	if err != nil {
		Logger().Debug("define failed", zap.Stringer("key", key), zap.Error(err))
		return nil, err
	}
	if m == nil {
		return nil, errors.InvalidInput(errors.PhaseDefine, "builder returned no mapping for "+key.String())
	}
	if m.Key() != key {
		return nil, errors.New(errors.PhaseDefine, errors.KindTypeMismatch).
			HostType(key.String()).
			Detail("builder returned mapping for %s", m.Key()).
			Build()
	}

	r.entries.Store(key, m)
	r.count.Add(1)
	Logger().Debug("mapping defined",
		zap.Stringer("key", key),
		zap.String("name", m.Name()),
		zap.String("scope", string(m.Scope())),
	)
	return m, nil
}

// Instantiate returns the mapping for key, defining it with builder on a
// miss. Concurrent callers for the same key share a single Define; the
// boolean reports whether this call's builder created the mapping.
//
// A builder must not call Instantiate for its own key: it would wait on
// its own flight forever. Re-entry through Define fails with
// KindAlreadyDefined.
func (r *Registry) Instantiate(key Key, builder Builder) (*Mapping, bool, error) {
	if m, ok := r.Lookup(key); ok {
		return m, false, nil
	}

	created := false
	v, err, _ := r.flight.Do(r.flightKey(key), func() (any, error) {
		if m, ok := r.Lookup(key); ok {
			return m, nil
		}
		m, err := r.Define(key, builder)
		if err != nil {
			return nil, err
		}
		created = true
		return m, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Mapping), created, nil
}

// flightKey interns key into a unique string. Type strings alone are not
// unique across packages, so keys are numbered on first sight.
func (r *Registry) flightKey(key Key) string {
	if id, ok := r.ids.Load(key); ok {
		return id.(string)
	}
	id := strconv.FormatUint(r.nextID.Add(1), 10)
	actual, _ := r.ids.LoadOrStore(key, id)
	return actual.(string)
}

// Len returns the number of defined mappings.
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// Mappings returns a snapshot of all mappings sorted by scope and name.
func (r *Registry) Mappings() []*Mapping {
	var out []*Mapping
	r.entries.Range(func(_, v any) bool {
		out = append(out, v.(*Mapping))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope() != out[j].Scope() {
			return out[i].Scope() < out[j].Scope()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

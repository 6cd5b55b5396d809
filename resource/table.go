package resource

import (
	"strconv"
	"sync"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
)

// ErrClosed is returned by operations on a closed table.
var ErrClosed = errors.New(errors.PhaseOperation, errors.KindNotInitialized).
	Detail("resource table closed").
	Build()

type entry struct {
	value   any
	host    *hosttype.Type
	borrows uint32
	valid   bool
}

type subscriber struct {
	obs Observer
	id  uint64
}

// Table maps handles to native instances of host types and tracks
// outstanding borrows.
// Thread-safe.
type Table struct {
	entries   []entry
	free      []Handle
	observers []subscriber
	nextObs   uint64
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make([]entry, 0, 64),
		free:    make([]Handle, 0, 16),
	}
}

// Insert stores value as an instance of host and returns its handle.
func (t *Table) Insert(host *hosttype.Type, value any) (Handle, error) {
	if host == nil {
		return 0, errors.InvalidInput(errors.PhaseOperation, "host type cannot be nil")
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}
	e := entry{value: value, host: host, valid: true}
	var h Handle
	if n := len(t.free); n > 0 {
		h = t.free[n-1]
		t.free = t.free[:n-1]
		t.entries[h-1] = e
	} else {
		t.entries = append(t.entries, e)
		h = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Host: host, Value: value})
	return h, nil
}

// lookup returns the live entry for h. Callers hold t.mu.
func (t *Table) lookup(h Handle) (*entry, bool) {
	if h == 0 || int(h) > len(t.entries) {
		return nil, false
	}
	e := &t.entries[h-1]
	if !e.valid {
		return nil, false
	}
	return e, true
}

// Get returns the value stored under h.
func (t *Table) Get(h Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.lookup(h)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// GetTyped returns the value under h if it is an instance of host.
func (t *Table) GetTyped(h Handle, host *hosttype.Type) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.lookup(h)
	if !ok {
		return nil, unknownHandle(h)
	}
	if e.host != host {
		return nil, errors.New(errors.PhaseOperation, errors.KindTypeMismatch).
			Path("handle", strconv.FormatUint(uint64(h), 10)).
			GoType(e.host.Name).
			HostType(host.Name).
			Build()
	}
	return e.value, nil
}

// HostType returns the host type h was inserted with.
func (t *Table) HostType(h Handle) (*hosttype.Type, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.lookup(h)
	if !ok {
		return nil, false
	}
	return e.host, true
}

// Borrow records a temporary loan of h. A borrowed handle cannot be removed
// until every loan is returned.
func (t *Table) Borrow(h Handle) error {
	t.mu.Lock()
	e, ok := t.lookup(h)
	if !ok {
		t.mu.Unlock()
		return unknownHandle(h)
	}
	e.borrows++
	ev := Event{Type: EventBorrowed, Handle: h, Host: e.host, Value: e.value}
	t.mu.Unlock()

	t.notify(ev)
	return nil
}

// ReturnBorrow ends one loan of h.
func (t *Table) ReturnBorrow(h Handle) error {
	t.mu.Lock()
	e, ok := t.lookup(h)
	if !ok {
		t.mu.Unlock()
		return unknownHandle(h)
	}
	if e.borrows == 0 {
		t.mu.Unlock()
		return errors.Constraint("return-borrow", uint32(h), "handle has no outstanding borrows")
	}
	e.borrows--
	ev := Event{Type: EventBorrowReturned, Handle: h, Host: e.host, Value: e.value}
	t.mu.Unlock()

	t.notify(ev)
	return nil
}

// Borrows returns the number of outstanding loans of h.
func (t *Table) Borrows(h Handle) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.lookup(h)
	if !ok {
		return 0
	}
	return int(e.borrows)
}

// Remove drops h and returns its value. Values implementing Dropper are
// dropped after the handle is released.
func (t *Table) Remove(h Handle) (any, error) {
	t.mu.Lock()
	e, ok := t.lookup(h)
	if !ok {
		t.mu.Unlock()
		return nil, unknownHandle(h)
	}
	if e.borrows > 0 {
		n := e.borrows
		t.mu.Unlock()
		return nil, errors.Constraint("drop", uint32(h), strconv.FormatUint(uint64(n), 10)+" outstanding borrow(s)")
	}
	value, host := e.value, e.host
	*e = entry{}
	t.free = append(t.free, h)
	t.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventDropped, Handle: h, Host: host, Value: value})
	return value, nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries) - len(t.free)
}

// Each calls fn for every live handle until fn returns false.
func (t *Table) Each(fn func(Handle, *hosttype.Type, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.entries {
		e := t.entries[i]
		if e.valid && !fn(Handle(i+1), e.host, e.value) {
			return
		}
	}
}

// Subscribe registers o for lifecycle events. The returned function
// removes the subscription.
func (t *Table) Subscribe(o Observer) (unsubscribe func()) {
	t.obsMu.Lock()
	t.nextObs++
	id := t.nextObs
	t.observers = append(t.observers, subscriber{obs: o, id: id})
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		for i, s := range t.observers {
			if s.id == id {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// Close drops every live value and rejects further inserts. Outstanding
// borrows do not prevent cleanup.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	entries := t.entries
	t.entries = nil
	t.free = nil
	t.mu.Unlock()

	for i := range entries {
		e := entries[i]
		if !e.valid {
			continue
		}
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
		t.notify(Event{Type: EventDropped, Handle: Handle(i + 1), Host: e.host, Value: e.value})
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, s := range t.observers {
		s.obs.OnResourceEvent(e)
	}
}

func unknownHandle(h Handle) error {
	return errors.NotFound(errors.PhaseOperation, "handle", strconv.FormatUint(uint64(h), 10))
}

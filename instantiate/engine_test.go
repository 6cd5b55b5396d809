package instantiate_test

import (
	stderrors "errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/instantiate"
	"github.com/wippyai/typebind/registry"
	"github.com/wippyai/typebind/sequence"
)

var (
	stdScope = hosttype.MustScope("typebind:std@0.1.0")
	geoScope = hosttype.MustScope("example:geo@0.1.0")
	appScope = hosttype.MustScope("example:app@0.1.0")
)

type meters float64

type feet float32

// wrapped forwards every KindBuilder method to a sequence builder.
type wrapped struct {
	seq *sequence.Kind
}

func (w wrapped) Kind() registry.GenericKind { return w.seq.Kind() }

func (w wrapped) TypeName(elem hosttype.Descriptor) string { return w.seq.TypeName(elem) }

func (w wrapped) ValueShape(name string, elem hosttype.Descriptor) wit.Type {
	return w.seq.ValueShape(name, elem)
}

func (w wrapped) Layouts() []hosttype.Layout { return w.seq.Layouts() }

func (w wrapped) ElementOf(goType reflect.Type) (reflect.Type, bool) {
	return w.seq.ElementOf(goType)
}

func (w wrapped) Supports(elem reflect.Type) bool { return w.seq.Supports(elem) }

func (w wrapped) BindMethods(ts hosttype.TypeSystem, m *registry.Mapping) error {
	return w.seq.BindMethods(ts, m)
}

// countingKind counts method-table builds.
type countingKind struct {
	wrapped
	binds atomic.Int32
}

func (k *countingKind) BindMethods(ts hosttype.TypeSystem, m *registry.Mapping) error {
	k.binds.Add(1)
	return k.wrapped.BindMethods(ts, m)
}

// partialKind only populates the value layout.
type partialKind struct {
	wrapped
}

func (partialKind) Kind() registry.GenericKind { return registry.GenericKind(42) }

func (partialKind) Layouts() []hosttype.Layout {
	return []hosttype.Layout{hosttype.LayoutValue}
}

func setup(t *testing.T) (*hosttype.Universe, *instantiate.Engine, *countingKind) {
	t.Helper()
	u := hosttype.NewUniverse()
	if err := hosttype.DeclareBuiltins(u, stdScope); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Declare(reflect.TypeFor[meters](), "meters", geoScope, wit.F64{}); err != nil {
		t.Fatal(err)
	}

	kind := &countingKind{wrapped: wrapped{seq: sequence.NewKind()}}
	sequence.Support[meters](kind.seq)

	eng := instantiate.New(u, registry.New(), instantiate.DefaultOptions())
	if err := eng.RegisterKind(kind); err != nil {
		t.Fatal(err)
	}
	return u, eng, kind
}

func TestEngine_IdempotentInstantiation(t *testing.T) {
	u, eng, kind := setup(t)
	defer u.EnterScope(stdScope)()

	st := instantiate.StaticFor[int32](eng, registry.KindSequence)

	first, err := st.ValueType()
	if err != nil {
		t.Fatalf("ValueType failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		vt, err := st.ValueType()
		if err != nil {
			t.Fatal(err)
		}
		if vt != first {
			t.Fatalf("call %d returned a different handle", i)
		}
	}

	// Other accessors and fresh dispatchers reuse the same instantiation.
	again := eng.Static(registry.KeyFor[int32](registry.KindSequence))
	ref, err := again.ReferenceType()
	if err != nil {
		t.Fatal(err)
	}
	alloc, err := st.AllocatedType()
	if err != nil {
		t.Fatal(err)
	}
	if ref == first || alloc == first || ref == alloc {
		t.Fatal("layouts should have distinct handles")
	}

	if n := kind.binds.Load(); n != 1 {
		t.Errorf("builder ran %d times, want 1", n)
	}
	if n := eng.Registry().Len(); n != 1 {
		t.Errorf("registry Len = %d, want 1", n)
	}
}

func TestEngine_ConcurrentInstantiation(t *testing.T) {
	u, eng, kind := setup(t)
	defer u.EnterScope(stdScope)()

	const n = 32
	handles := make([]*hosttype.Type, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = instantiate.StaticFor[float64](eng, registry.KindSequence).ValueType()
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Fatalf("caller %d saw a different handle", i)
		}
	}
	if kind.binds.Load() != 1 {
		t.Errorf("builder ran %d times, want 1", kind.binds.Load())
	}
}

func TestEngine_ScopeEnforcement(t *testing.T) {
	u, eng, _ := setup(t)
	st := instantiate.StaticFor[meters](eng, registry.KindSequence)

	leave := u.EnterScope(appScope)
	_, err := st.ValueType()
	leave()

	var sm *errors.ScopeMismatchError
	if !stderrors.As(err, &sm) {
		t.Fatalf("got %v, want ScopeMismatchError", err)
	}
	if sm.Element != "meters" || sm.ElementScope != string(geoScope) || sm.RequestScope != string(appScope) {
		t.Errorf("error = %+v", sm)
	}
	if _, ok := eng.Registry().Lookup(st.Key()); ok {
		t.Fatal("rejected instantiation must not create a mapping")
	}

	defer u.EnterScope(geoScope)()
	vt, err := st.ValueType()
	if err != nil {
		t.Fatalf("instantiation from owning scope failed: %v", err)
	}
	if vt.Scope != geoScope || vt.Name != "sequence<meters>" {
		t.Errorf("handle = %v", vt)
	}
}

func TestEngine_NoCurrentScope(t *testing.T) {
	_, eng, _ := setup(t)

	_, err := instantiate.StaticFor[int32](eng, registry.KindSequence).ValueType()
	if errors.KindOf(err) != errors.KindNotInitialized {
		t.Fatalf("got %v, want not_initialized", err)
	}
}

func TestEngine_CustomGuard(t *testing.T) {
	u := hosttype.NewUniverse()
	if err := hosttype.DeclareBuiltins(u, stdScope); err != nil {
		t.Fatal(err)
	}
	anyScope := instantiate.GuardFunc(func(hosttype.Descriptor, hosttype.Scope) error { return nil })
	eng := instantiate.New(u, registry.New(), instantiate.Options{Guard: anyScope})
	if err := eng.RegisterKind(sequence.NewKind()); err != nil {
		t.Fatal(err)
	}

	defer u.EnterScope(appScope)()
	vt, err := instantiate.StaticFor[string](eng, registry.KindSequence).ValueType()
	if err != nil {
		t.Fatalf("permissive guard rejected: %v", err)
	}
	if vt.Scope != stdScope {
		t.Errorf("instantiation should live in the element's scope, got %q", vt.Scope)
	}
}

func TestEngine_UnknownKindAndElement(t *testing.T) {
	u, eng, _ := setup(t)
	defer u.EnterScope(stdScope)()

	_, err := eng.Instantiate(registry.KeyFor[int32](registry.GenericKind(99)))
	if errors.KindOf(err) != errors.KindNotFound {
		t.Fatalf("unknown kind: got %v", err)
	}

	_, err = eng.Instantiate(registry.KeyFor[complex64](registry.KindSequence))
	if errors.KindOf(err) != errors.KindNotFound {
		t.Fatalf("unmapped element: got %v", err)
	}
}

func TestEngine_UnsupportedElementRetry(t *testing.T) {
	u, eng, kind := setup(t)
	if _, err := u.Declare(reflect.TypeFor[feet](), "feet", geoScope, wit.F32{}); err != nil {
		t.Fatal(err)
	}
	defer u.EnterScope(geoScope)()

	before := len(u.Types())
	key := registry.KeyFor[feet](registry.KindSequence)
	if _, err := eng.Instantiate(key); errors.KindOf(err) != errors.KindUnsupported {
		t.Fatalf("got %v, want unsupported", err)
	}
	if n := len(u.Types()); n != before {
		t.Fatalf("failed instantiation left %d host types behind", n-before)
	}
	if _, ok := eng.Registry().Lookup(key); ok {
		t.Fatal("failed instantiation left a mapping behind")
	}

	sequence.Support[feet](kind.seq)
	m, err := eng.Instantiate(key)
	if err != nil {
		t.Fatalf("retry after Support failed: %v", err)
	}
	if m.Name() != "sequence<feet>" || len(u.Types()) != before+3 {
		t.Errorf("retry defined %s with %d new host types", m.Name(), len(u.Types())-before)
	}
}

func TestEngine_RegisterKindDuplicate(t *testing.T) {
	_, eng, _ := setup(t)
	if err := eng.RegisterKind(sequence.NewKind()); errors.KindOf(err) != errors.KindAlreadyDefined {
		t.Fatalf("got %v, want already_defined", err)
	}
}

func TestEngine_NestedResolve(t *testing.T) {
	u, eng, _ := setup(t)
	defer u.EnterScope(stdScope)()

	d, err := eng.Resolve(reflect.TypeFor[*sequence.BitVector]())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Name != "sequence<bool>" || d.Scope != stdScope {
		t.Errorf("descriptor = %+v", d)
	}
	if _, ok := eng.Registry().Lookup(registry.KeyFor[bool](registry.KindSequence)); !ok {
		t.Fatal("Resolve should instantiate the nested sequence")
	}
}

func TestEngine_NestedScopeMismatch(t *testing.T) {
	u, eng, _ := setup(t)
	defer u.EnterScope(appScope)()

	_, err := instantiate.StaticFor[*sequence.Vector[int32]](eng, registry.KindSequence).ValueType()
	if !stderrors.Is(err, &errors.ScopeMismatchError{}) {
		t.Fatalf("got %v, want scope mismatch from the inner instantiation", err)
	}
	if eng.Registry().Len() != 0 {
		t.Fatal("no mapping should be created")
	}
}

func TestStatic_BuilderIncompletePanics(t *testing.T) {
	u := hosttype.NewUniverse()
	if err := hosttype.DeclareBuiltins(u, stdScope); err != nil {
		t.Fatal(err)
	}
	eng := instantiate.New(u, registry.New(), instantiate.DefaultOptions())
	if err := eng.RegisterKind(partialKind{wrapped{seq: sequence.NewKind()}}); err != nil {
		t.Fatal(err)
	}
	defer u.EnterScope(stdScope)()

	st := eng.Static(registry.NewKey(registry.GenericKind(42), reflect.TypeFor[int32]()))
	if _, err := st.ValueType(); err != nil {
		t.Fatalf("ValueType failed: %v", err)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || errors.KindOf(err) != errors.KindBuilderIncomplete {
			t.Fatalf("recovered %v, want builder_incomplete fault", r)
		}
	}()
	_, _ = st.ReferenceType()
	t.Fatal("ReferenceType should panic")
}

package sequence

import (
	"context"
	"reflect"
	"slices"
	"testing"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/instantiate"
	"github.com/wippyai/typebind/registry"
)

var stdScope = hosttype.MustScope("typebind:std@0.1.0")

func newEngine(t *testing.T) *instantiate.Engine {
	t.Helper()
	u := hosttype.NewUniverse()
	if err := hosttype.DeclareBuiltins(u, stdScope); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(u.EnterScope(stdScope))

	eng := instantiate.New(u, registry.New(), instantiate.DefaultOptions())
	if err := eng.RegisterKind(NewKind()); err != nil {
		t.Fatal(err)
	}
	return eng
}

func valueType[T any](t *testing.T, eng *instantiate.Engine) *hosttype.Type {
	t.Helper()
	vt, err := instantiate.StaticFor[T](eng, registry.KindSequence).ValueType()
	if err != nil {
		t.Fatalf("ValueType failed: %v", err)
	}
	return vt
}

func call(t *testing.T, typ *hosttype.Type, name string, recv any, args ...any) any {
	t.Helper()
	out, err := typ.Call(context.Background(), name, recv, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return out
}

func TestMethods_Bound(t *testing.T) {
	eng := newEngine(t)
	st := instantiate.StaticFor[int32](eng, registry.KindSequence)

	want := []string{MethodAppend, MethodGetIndex, MethodPushBack, MethodResize, MethodSetIndex, MethodSize}
	slices.Sort(want)

	for _, get := range []func() (*hosttype.Type, error){st.ValueType, st.ReferenceType, st.AllocatedType} {
		typ, err := get()
		if err != nil {
			t.Fatal(err)
		}
		if got := typ.MethodNames(); !slices.Equal(got, want) {
			t.Errorf("%s methods = %v, want %v", typ.Layout, got, want)
		}
		if typ.Name != "sequence<s32>" {
			t.Errorf("Name = %q, want sequence<s32>", typ.Name)
		}
	}
}

func TestMethods_AppendOrdering(t *testing.T) {
	eng := newEngine(t)
	typ := valueType[string](t, eng)
	v := NewVector[string]()

	call(t, typ, MethodAppend, v, []string{"a", "b", "c"})
	if got := v.Values(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("after first append: %v", got)
	}
	call(t, typ, MethodAppend, v, []string{"d"})
	if got := v.Values(); !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Fatalf("after second append: %v", got)
	}
	if n := call(t, typ, MethodSize, v); n != int64(4) {
		t.Fatalf("size = %v, want 4", n)
	}
}

func TestMethods_OneBasedRoundTrip(t *testing.T) {
	eng := newEngine(t)
	typ := valueType[int64](t, eng)
	v := NewVector[int64]()

	values := []int64{10, 20, 30, 40}
	for _, x := range values {
		call(t, typ, MethodPushBack, v, x)
	}

	for i := range values {
		got := call(t, typ, MethodGetIndex, v, int64(i+1))
		p, ok := got.(*int64)
		if !ok {
			t.Fatalf("getindex returned %T, want *int64", got)
		}
		if *p != values[i] {
			t.Errorf("getindex(%d) = %d, want %d", i+1, *p, values[i])
		}
	}

	call(t, typ, MethodSetIndex, v, int64(99), 2)
	if p := call(t, typ, MethodGetIndex, v, 2).(*int64); *p != 99 {
		t.Fatalf("getindex(2) = %d after setindex, want 99", *p)
	}
	if got := v.Values(); !slices.Equal(got, []int64{10, 99, 30, 40}) {
		t.Fatalf("other elements changed: %v", got)
	}

	// The general variant hands out references into storage.
	p := call(t, typ, MethodGetIndex, v, 1).(*int64)
	*p = -1
	if v.Get(0) != -1 {
		t.Fatal("write through getindex result should reach storage")
	}
}

func TestMethods_PackedCopySemantics(t *testing.T) {
	eng := newEngine(t)
	typ := valueType[bool](t, eng)

	recv, err := NewKind().NewInstance(reflect.TypeFor[bool]())
	if err != nil {
		t.Fatal(err)
	}
	b, ok := recv.(*BitVector)
	if !ok {
		t.Fatalf("NewInstance(bool) = %T, want *BitVector", recv)
	}

	call(t, typ, MethodPushBack, b, false)
	call(t, typ, MethodPushBack, b, false)
	call(t, typ, MethodSetIndex, b, true, 2)

	got := call(t, typ, MethodGetIndex, b, 2)
	x, ok := got.(bool)
	if !ok {
		t.Fatalf("getindex returned %T, want bool copy", got)
	}
	if !x {
		t.Fatal("getindex(2) = false after setindex(true, 2)")
	}

	// Clearing the copy leaves storage untouched.
	x = false
	if x == b.Get(1) {
		t.Fatal("mutating the getindex result changed the stored element")
	}
	if !b.Get(1) {
		t.Fatal("stored element should be true")
	}
	if call(t, typ, MethodGetIndex, b, 1).(bool) {
		t.Fatal("element 1 should still be false")
	}
}

func TestMethods_ResizeBounds(t *testing.T) {
	eng := newEngine(t)
	typ := valueType[float32](t, eng)
	v := NewVector[float32](1, 2, 3)

	_, err := typ.Call(context.Background(), MethodResize, v, -1)
	if errors.KindOf(err) != errors.KindConstraint {
		t.Fatalf("resize(-1): got %v, want constraint", err)
	}
	if v.Len() != 3 {
		t.Fatal("failed resize must not modify the sequence")
	}

	call(t, typ, MethodResize, v, 0)
	if n := call(t, typ, MethodSize, v); n != int64(0) {
		t.Fatalf("size = %v after resize(0)", n)
	}
	call(t, typ, MethodPushBack, v, float32(4))
	if p := call(t, typ, MethodGetIndex, v, 1).(*float32); *p != 4 {
		t.Fatalf("getindex(1) = %v, want 4", *p)
	}

	// Operation errors leave the registry untouched.
	if eng.Registry().Len() != 1 {
		t.Fatalf("registry Len = %d, want 1", eng.Registry().Len())
	}
}

func TestMethods_ArgumentErrors(t *testing.T) {
	eng := newEngine(t)
	typ := valueType[int32](t, eng)
	v := NewVector[int32]()
	ctx := context.Background()

	tests := []struct {
		name string
		recv any
		op   string
		args []any
		kind errors.Kind
	}{
		{"wrong receiver", NewVector[string](), MethodSize, nil, errors.KindTypeMismatch},
		{"wrong element", v, MethodPushBack, []any{"x"}, errors.KindTypeMismatch},
		{"wrong index type", v, MethodGetIndex, []any{"1"}, errors.KindTypeMismatch},
		{"missing argument", v, MethodResize, nil, errors.KindInvalidInput},
		{"wrong append slice", v, MethodAppend, []any{[]int64{1}}, errors.KindTypeMismatch},
		{"unknown method", v, "pop", nil, errors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := typ.Call(ctx, tt.op, tt.recv, tt.args...)
			if got := errors.KindOf(err); got != tt.kind {
				t.Fatalf("kind = %q, want %q (err %v)", got, tt.kind, err)
			}
		})
	}
}

func TestKind_NestedSequence(t *testing.T) {
	eng := newEngine(t)
	outer := valueType[*Vector[int32]](t, eng)

	if outer.Name != "sequence<sequence<s32>>" {
		t.Fatalf("Name = %q", outer.Name)
	}
	inner, ok := eng.Registry().Lookup(registry.KeyFor[int32](registry.KindSequence))
	if !ok {
		t.Fatal("inner instantiation should be created first")
	}
	if inner.Scope() != stdScope {
		t.Errorf("inner scope = %q", inner.Scope())
	}

	seqs := NewVector[*Vector[int32]]()
	call(t, outer, MethodPushBack, seqs, NewVector[int32](1, 2))
	if p := call(t, outer, MethodGetIndex, seqs, 1).(**Vector[int32]); (*p).Len() != 2 {
		t.Fatal("nested element lost")
	}
}

func TestKind_ElementOf(t *testing.T) {
	k := NewKind()

	tests := []struct {
		goType reflect.Type
		elem   reflect.Type
		ok     bool
	}{
		{reflect.TypeFor[*Vector[int32]](), reflect.TypeFor[int32](), true},
		{reflect.TypeFor[*BitVector](), reflect.TypeFor[bool](), true},
		{reflect.TypeFor[*Vector[*Vector[string]]](), reflect.TypeFor[*Vector[string]](), true},
		{reflect.TypeFor[Vector[int32]](), nil, false},
		{reflect.TypeFor[*Vector[uint8]](), nil, false},
	}

	for _, tt := range tests {
		elem, ok := k.ElementOf(tt.goType)
		if ok != tt.ok || elem != tt.elem {
			t.Errorf("ElementOf(%v) = %v, %v; want %v, %v", tt.goType, elem, ok, tt.elem, tt.ok)
		}
	}

	if !k.Packed(reflect.TypeFor[bool]()) || k.Packed(reflect.TypeFor[int32]()) {
		t.Error("only bool should use the packed variant")
	}

	Support[uint8](k)
	if _, ok := k.ElementOf(reflect.TypeFor[*Vector[uint8]]()); !ok {
		t.Error("Support should register the storage type")
	}
}

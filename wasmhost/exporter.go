package wasmhost

import (
	"context"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/registry"
	"github.com/wippyai/typebind/resource"
	"github.com/wippyai/typebind/sequence"
)

// Sequence storage is released when the guest drops its handle.
var (
	_ resource.Dropper = (*sequence.Vector[float64])(nil)
	_ resource.Dropper = (*sequence.BitVector)(nil)
)

// Function is one host function of an exported module.
type Function struct {
	Handler api.GoModuleFunc
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Exporter publishes sequence instantiations as wazero host modules.
// Instances live in a resource table and cross the boundary as i32 handles.
type Exporter struct {
	runtime wazero.Runtime
	table   *resource.Table
	kind    *sequence.Kind
}

// New creates an exporter over rt. Instances created by guests are stored
// in table.
func New(rt wazero.Runtime, table *resource.Table, kind *sequence.Kind) *Exporter {
	return &Exporter{runtime: rt, table: table, kind: kind}
}

// Table returns the resource table backing exported instances.
func (x *Exporter) Table() *resource.Table {
	return x.table
}

// ModuleName returns the host module name for scope,
// e.g. "typebind:std/sequences@0.1.0".
func ModuleName(scope hosttype.Scope) string {
	name := scope.Package() + "/sequences"
	if v, ok := scope.Version(); ok {
		name += "@" + v.String()
	}
	return name
}

// ResourceName converts a host type name to a WIT resource identifier:
// "sequence<sequence<s32>>" becomes "sequence-sequence-s32".
func ResourceName(typeName string) string {
	var b strings.Builder
	for _, r := range typeName {
		switch r {
		case '<', ',', ' ':
			b.WriteByte('-')
		case '>':
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(strings.ReplaceAll(b.String(), "--", "-"), "-")
}

// Functions returns the host functions for every mapping whose element
// is a core wasm scalar, sorted by name. Other mappings are skipped.
func (x *Exporter) Functions(mappings []*registry.Mapping) []Function {
	var out []Function
	for _, m := range mappings {
		fns, ok := x.functions(m)
		if !ok {
			Logger().Debug("sequence not exportable",
				zap.String("name", m.Name()),
				zap.Stringer("element", m.Key().Elem),
			)
			continue
		}
		out = append(out, fns...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Export instantiates a host module for scope holding the functions of
// mappings owned by that scope.
func (x *Exporter) Export(ctx context.Context, scope hosttype.Scope, mappings []*registry.Mapping) (api.Module, error) {
	var owned []*registry.Mapping
	for _, m := range mappings {
		if m.Scope() == scope {
			owned = append(owned, m)
		}
	}

	fns := x.Functions(owned)
	if len(fns) == 0 {
		return nil, errors.New(errors.PhaseExport, errors.KindNotFound).
			Path(string(scope)).
			Detail("no exportable sequences").
			Build()
	}

	name := ModuleName(scope)
	builder := x.runtime.NewHostModuleBuilder(name)
	for _, f := range fns {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.Params, f.Results).
			Export(f.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseExport, errors.KindRegistration, err, "instantiate host module "+name)
	}
	Logger().Info("host module exported",
		zap.String("module", name),
		zap.Int("functions", len(fns)),
	)
	return mod, nil
}

func (x *Exporter) functions(m *registry.Mapping) ([]Function, bool) {
	elem := m.Key().Elem
	c, ok := codecFor(elem)
	if !ok {
		return nil, false
	}
	ref, alloc := m.Reference(), m.Allocated()
	if ref == nil || alloc == nil {
		return nil, false
	}

	res := ResourceName(m.Name())
	method := func(op string) string { return "[method]" + res + "." + op }
	i32, i64 := api.ValueTypeI32, api.ValueTypeI64

	return []Function{
		{
			Name:    "[constructor]" + res,
			Results: []api.ValueType{i32},
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				v, err := x.kind.NewInstance(elem)
				if err != nil {
					trap(err)
				}
				h, err := x.table.Insert(alloc, v)
				if err != nil {
					trap(err)
				}
				stack[0] = uint64(h)
			},
		},
		{
			Name:    "[resource-drop]" + res,
			Params:  []api.ValueType{i32},
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				if _, err := x.table.Remove(resource.Handle(uint32(stack[0]))); err != nil {
					trap(err)
				}
			},
		},
		{
			Name:    method(sequence.MethodSize),
			Params:  []api.ValueType{i32},
			Results: []api.ValueType{i64},
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				out := x.call(ctx, ref, alloc, sequence.MethodSize, stack[0])
				stack[0] = uint64(out.(int64))
			},
		},
		{
			Name:   method(sequence.MethodResize),
			Params: []api.ValueType{i32, i64},
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				x.call(ctx, ref, alloc, sequence.MethodResize, stack[0], int64(stack[1]))
			},
		},
		{
			Name:   method(sequence.MethodPushBack),
			Params: []api.ValueType{i32, c.vt},
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				x.call(ctx, ref, alloc, sequence.MethodPushBack, stack[0], c.decode(stack[1]))
			},
		},
		{
			Name:    method(sequence.MethodGetIndex),
			Params:  []api.ValueType{i32, i64},
			Results: []api.ValueType{c.vt},
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				out := x.call(ctx, ref, alloc, sequence.MethodGetIndex, stack[0], int64(stack[1]))
				enc, ok := c.encode(out)
				if !ok {
					trap(errors.TypeMismatch(errors.PhaseExport, []string{res, sequence.MethodGetIndex}, "", elem.String()))
				}
				stack[0] = enc
			},
		},
		{
			Name:   method(sequence.MethodSetIndex),
			Params: []api.ValueType{i32, c.vt, i64},
			Handler: func(ctx context.Context, _ api.Module, stack []uint64) {
				x.call(ctx, ref, alloc, sequence.MethodSetIndex, stack[0], c.decode(stack[1]), int64(stack[2]))
			},
		},
	}, true
}

// call runs a bound method on the instance behind a borrowed handle.
// Failures trap the calling guest.
func (x *Exporter) call(ctx context.Context, ref, alloc *hosttype.Type, op string, handle uint64, args ...any) any {
	h := resource.Handle(uint32(handle))
	recv, err := x.table.GetTyped(h, alloc)
	if err != nil {
		trap(err)
	}
	if err := x.table.Borrow(h); err != nil {
		trap(err)
	}
	defer func() { _ = x.table.ReturnBorrow(h) }()

	out, err := ref.Call(ctx, op, recv, args...)
	if err != nil {
		trap(err)
	}
	return out
}

// trap aborts the current host call. wazero surfaces the panic value to
// the guest's caller as the call error.
func trap(err error) {
	Logger().Debug("host call trapped", zap.Error(err))
	panic(err)
}

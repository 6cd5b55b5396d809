package wasmhost

import (
	"math"
	"reflect"

	"github.com/tetratelabs/wazero/api"
)

// codec moves one element type across the core wasm stack.
type codec struct {
	vt     api.ValueType
	decode func(uint64) any
	encode func(any) (uint64, bool)
}

func scalar[T any](vt api.ValueType, dec func(uint64) T, enc func(T) uint64) codec {
	return codec{
		vt:     vt,
		decode: func(u uint64) any { return dec(u) },
		encode: func(x any) (uint64, bool) {
			switch v := x.(type) {
			case T:
				return enc(v), true
			case *T:
				if v != nil {
					return enc(*v), true
				}
			}
			return 0, false
		},
	}
}

var codecs = map[reflect.Type]codec{
	reflect.TypeFor[bool](): scalar(api.ValueTypeI32,
		func(u uint64) bool { return uint32(u) != 0 },
		func(b bool) uint64 {
			if b {
				return 1
			}
			return 0
		}),
	reflect.TypeFor[int32](): scalar(api.ValueTypeI32,
		func(u uint64) int32 { return int32(uint32(u)) },
		func(v int32) uint64 { return uint64(uint32(v)) }),
	reflect.TypeFor[int64](): scalar(api.ValueTypeI64,
		func(u uint64) int64 { return int64(u) },
		func(v int64) uint64 { return uint64(v) }),
	reflect.TypeFor[float32](): scalar(api.ValueTypeF32,
		func(u uint64) float32 { return math.Float32frombits(uint32(u)) },
		func(v float32) uint64 { return uint64(math.Float32bits(v)) }),
	reflect.TypeFor[float64](): scalar(api.ValueTypeF64, math.Float64frombits, math.Float64bits),
}

var kindBase = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

// codecFor returns the stack codec for elem. Named types over a core wasm
// scalar (type Meters float64) convert through their underlying kind.
func codecFor(elem reflect.Type) (codec, bool) {
	if c, ok := codecs[elem]; ok {
		return c, true
	}
	base, ok := kindBase[elem.Kind()]
	if !ok {
		return codec{}, false
	}
	c := codecs[base]
	return codec{
		vt: c.vt,
		decode: func(u uint64) any {
			return reflect.ValueOf(c.decode(u)).Convert(elem).Interface()
		},
		encode: func(x any) (uint64, bool) {
			v := reflect.ValueOf(x)
			if !v.IsValid() {
				return 0, false
			}
			if v.Kind() == reflect.Pointer && v.Type().Elem() == elem {
				if v.IsNil() {
					return 0, false
				}
				v = v.Elem()
			}
			if v.Type() != elem {
				return 0, false
			}
			return c.encode(v.Convert(base).Interface())
		},
	}, true
}

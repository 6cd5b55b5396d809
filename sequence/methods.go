package sequence

import (
	"context"
	"reflect"
	"strconv"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
)

// Method names bound on every sequence type.
const (
	MethodSize     = "size"
	MethodResize   = "resize"
	MethodAppend   = "append"
	MethodPushBack = "push-back"
	MethodGetIndex = "getindex"
	MethodSetIndex = "setindex"
)

type namedMethod struct {
	name string
	fn   hosttype.Method
}

func bindAll(ts hosttype.TypeSystem, t *hosttype.Type, methods []namedMethod) error {
	for _, m := range methods {
		if err := ts.BindMethod(t, m.name, m.fn); err != nil {
			return err
		}
	}
	return nil
}

// commonMethods returns size, resize and append for any store.
func commonMethods[S Store[E], E any](t *hosttype.Type) []namedMethod {
	return []namedMethod{
		{MethodSize, func(_ context.Context, recv any, args ...any) (any, error) {
			s, err := receiver[S](t, MethodSize, recv, args, 0)
			if err != nil {
				return nil, err
			}
			return int64(s.Len()), nil
		}},
		{MethodResize, func(_ context.Context, recv any, args ...any) (any, error) {
			s, err := receiver[S](t, MethodResize, recv, args, 1)
			if err != nil {
				return nil, err
			}
			n, err := intArg(t, MethodResize, args[0])
			if err != nil {
				return nil, err
			}
			return nil, s.Resize(n)
		}},
		{MethodAppend, func(_ context.Context, recv any, args ...any) (any, error) {
			s, err := receiver[S](t, MethodAppend, recv, args, 1)
			if err != nil {
				return nil, err
			}
			items, ok := args[0].([]E)
			if !ok {
				return nil, argMismatch(t, MethodAppend, args[0], reflect.TypeFor[[]E]())
			}
			s.Append(items...)
			return nil, nil
		}},
	}
}

// bindVector binds the general variant: getindex returns *T aliasing the slot.
func bindVector[T any](ts hosttype.TypeSystem, t *hosttype.Type) error {
	methods := commonMethods[*Vector[T], T](t)
	methods = append(methods,
		namedMethod{MethodPushBack, func(_ context.Context, recv any, args ...any) (any, error) {
			v, err := receiver[*Vector[T]](t, MethodPushBack, recv, args, 1)
			if err != nil {
				return nil, err
			}
			x, err := elemArg[T](t, MethodPushBack, args[0])
			if err != nil {
				return nil, err
			}
			v.PushBack(x)
			return nil, nil
		}},
		namedMethod{MethodGetIndex, func(_ context.Context, recv any, args ...any) (any, error) {
			v, err := receiver[*Vector[T]](t, MethodGetIndex, recv, args, 1)
			if err != nil {
				return nil, err
			}
			i, err := intArg(t, MethodGetIndex, args[0])
			if err != nil {
				return nil, err
			}
			return v.At(i - 1), nil
		}},
		namedMethod{MethodSetIndex, func(_ context.Context, recv any, args ...any) (any, error) {
			v, err := receiver[*Vector[T]](t, MethodSetIndex, recv, args, 2)
			if err != nil {
				return nil, err
			}
			x, err := elemArg[T](t, MethodSetIndex, args[0])
			if err != nil {
				return nil, err
			}
			i, err := intArg(t, MethodSetIndex, args[1])
			if err != nil {
				return nil, err
			}
			v.Set(i-1, x)
			return nil, nil
		}},
	)
	return bindAll(ts, t, methods)
}

// bindBits binds the packed variant: element access copies values in and out.
func bindBits(ts hosttype.TypeSystem, t *hosttype.Type) error {
	methods := commonMethods[*BitVector, bool](t)
	methods = append(methods,
		namedMethod{MethodPushBack, func(_ context.Context, recv any, args ...any) (any, error) {
			b, err := receiver[*BitVector](t, MethodPushBack, recv, args, 1)
			if err != nil {
				return nil, err
			}
			x, err := elemArg[bool](t, MethodPushBack, args[0])
			if err != nil {
				return nil, err
			}
			b.PushBack(x)
			return nil, nil
		}},
		namedMethod{MethodGetIndex, func(_ context.Context, recv any, args ...any) (any, error) {
			b, err := receiver[*BitVector](t, MethodGetIndex, recv, args, 1)
			if err != nil {
				return nil, err
			}
			i, err := intArg(t, MethodGetIndex, args[0])
			if err != nil {
				return nil, err
			}
			return b.Get(i - 1), nil
		}},
		namedMethod{MethodSetIndex, func(_ context.Context, recv any, args ...any) (any, error) {
			b, err := receiver[*BitVector](t, MethodSetIndex, recv, args, 2)
			if err != nil {
				return nil, err
			}
			x, err := elemArg[bool](t, MethodSetIndex, args[0])
			if err != nil {
				return nil, err
			}
			i, err := intArg(t, MethodSetIndex, args[1])
			if err != nil {
				return nil, err
			}
			b.Set(i-1, x)
			return nil, nil
		}},
	)
	return bindAll(ts, t, methods)
}

func receiver[S any](t *hosttype.Type, op string, recv any, args []any, want int) (S, error) {
	var zero S
	s, ok := recv.(S)
	if !ok {
		return zero, argMismatch(t, op, recv, reflect.TypeFor[S]())
	}
	if len(args) != want {
		return zero, errors.New(errors.PhaseOperation, errors.KindInvalidInput).
			Path(t.Name, op).
			Detail("expected %d argument(s), got %d", want, len(args)).
			Build()
	}
	return s, nil
}

func elemArg[T any](t *hosttype.Type, op string, arg any) (T, error) {
	switch x := arg.(type) {
	case T:
		return x, nil
	case *T:
		if x != nil {
			return *x, nil
		}
	}
	var zero T
	return zero, argMismatch(t, op, arg, reflect.TypeFor[T]())
}

// intArg converts a host integer to a Go int.
func intArg(t *hosttype.Type, op string, arg any) (int, error) {
	switch x := arg.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		if x > uint64(int(^uint(0)>>1)) {
			return 0, errors.Constraint(op, x, "count "+strconv.FormatUint(x, 10)+" overflows int")
		}
		return int(x), nil
	}
	return 0, argMismatch(t, op, arg, reflect.TypeFor[int64]())
}

func argMismatch(t *hosttype.Type, op string, got any, want reflect.Type) error {
	goType := "<nil>"
	if got != nil {
		goType = reflect.TypeOf(got).String()
	}
	return errors.New(errors.PhaseOperation, errors.KindTypeMismatch).
		Path(t.Name, op).
		GoType(goType).
		HostType(want.String()).
		Build()
}

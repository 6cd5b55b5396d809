package hosttype

import (
	"reflect"
	"sort"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typebind/errors"
)

// Universe is an in-memory TypeSystem.
// Thread-safe.
type Universe struct {
	natives map[reflect.Type]Descriptor
	names   map[nativeName]reflect.Type
	defined map[typeName]*Type
	types   []*Type
	scopes  []Scope
	mu      sync.RWMutex
}

type nativeName struct {
	scope Scope
	name  string
}

type typeName struct {
	scope  Scope
	name   string
	layout Layout
}

var _ TypeSystem = (*Universe)(nil)

// NewUniverse creates an empty universe.
func NewUniverse() *Universe {
	return &Universe{
		natives: make(map[reflect.Type]Descriptor),
		names:   make(map[nativeName]reflect.Type),
		defined: make(map[typeName]*Type),
	}
}

// Declare makes a native Go type known to the host under name, owned by scope.
// A Go type is declared once, and a name is unique within its scope.
// The WIT shape must be a primitive compatible with the Go kind, or a TypeDef.
func (u *Universe) Declare(goType reflect.Type, name string, scope Scope, shape wit.Type) (Descriptor, error) {
	if goType == nil {
		return Descriptor{}, errors.InvalidInput(errors.PhaseResolve, "Go type cannot be nil")
	}
	if name == "" || scope == "" {
		return Descriptor{}, errors.InvalidInput(errors.PhaseResolve, "name and scope are required")
	}
	if err := validateShape(goType, shape); err != nil {
		return Descriptor{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if prev, exists := u.natives[goType]; exists {
		return Descriptor{}, errors.New(errors.PhaseResolve, errors.KindAlreadyDefined).
			GoType(goType.String()).
			HostType(prev.Name).
			Detail("already declared in %s", prev.Scope).
			Build()
	}

	nn := nativeName{scope: scope, name: name}
	if prev, exists := u.names[nn]; exists {
		return Descriptor{}, errors.New(errors.PhaseResolve, errors.KindAlreadyDefined).
			GoType(goType.String()).
			HostType(name).
			Detail("name already declared in %s for %s", scope, prev).
			Build()
	}

	d := Descriptor{GoType: goType, WIT: shape, Name: name, Scope: scope}
	u.natives[goType] = d
	u.names[nn] = goType
	return d, nil
}

// Resolve implements TypeSystem.
func (u *Universe) Resolve(goType reflect.Type) (Descriptor, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	d, ok := u.natives[goType]
	return d, ok
}

// DefineType implements TypeSystem.
func (u *Universe) DefineType(name string, layout Layout, scope Scope, shape wit.Type) (*Type, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseDefine, "type name cannot be empty")
	}
	if layout >= NumLayouts {
		return nil, errors.InvalidInput(errors.PhaseDefine, "unknown layout "+layout.String())
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	key := typeName{scope: scope, name: name, layout: layout}
	if _, exists := u.defined[key]; exists {
		return nil, errors.AlreadyDefined(errors.PhaseDefine, layout.String()+" type", string(scope)+"#"+name)
	}

	t := &Type{
		WIT:     shape,
		methods: make(map[string]Method),
		Name:    name,
		Scope:   scope,
		ID:      uint32(len(u.types) + 1),
		Layout:  layout,
	}
	u.defined[key] = t
	u.types = append(u.types, t)
	return t, nil
}

// BindMethod implements TypeSystem.
func (u *Universe) BindMethod(t *Type, name string, m Method) error {
	if t == nil || m == nil {
		return errors.InvalidInput(errors.PhaseBind, "type and method are required")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseBind, "method name cannot be empty")
	}
	return t.bind(name, m)
}

// EnterScope makes s the current scope until the returned function is called.
// Scopes nest; the innermost is current.
func (u *Universe) EnterScope(s Scope) (leave func()) {
	u.mu.Lock()
	u.scopes = append(u.scopes, s)
	depth := len(u.scopes)
	u.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			u.mu.Lock()
			defer u.mu.Unlock()
			if len(u.scopes) >= depth {
				u.scopes = u.scopes[:depth-1]
			}
		})
	}
}

// CurrentScope implements TypeSystem.
func (u *Universe) CurrentScope() Scope {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if len(u.scopes) == 0 {
		return ""
	}
	return u.scopes[len(u.scopes)-1]
}

// Types returns every defined host type in definition order.
func (u *Universe) Types() []*Type {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*Type, len(u.types))
	copy(out, u.types)
	return out
}

// Natives returns the declared native types sorted by scope and name.
func (u *Universe) Natives() []Descriptor {
	u.mu.RLock()
	out := make([]Descriptor, 0, len(u.natives))
	for _, d := range u.natives {
		out = append(out, d)
	}
	u.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func validateShape(goType reflect.Type, shape wit.Type) error {
	var valid bool
	var expected string

	switch shape.(type) {
	case nil:
		return errors.InvalidInput(errors.PhaseResolve, "WIT shape cannot be nil")
	case wit.Bool:
		valid = goType.Kind() == reflect.Bool
		expected = "bool"
	case wit.U8:
		valid = goType.Kind() == reflect.Uint8
		expected = "uint8"
	case wit.S8:
		valid = goType.Kind() == reflect.Int8
		expected = "int8"
	case wit.U16:
		valid = goType.Kind() == reflect.Uint16
		expected = "uint16"
	case wit.S16:
		valid = goType.Kind() == reflect.Int16
		expected = "int16"
	case wit.U32:
		valid = goType.Kind() == reflect.Uint32
		expected = "uint32"
	case wit.S32:
		valid = goType.Kind() == reflect.Int32
		expected = "int32"
	case wit.U64:
		valid = goType.Kind() == reflect.Uint64
		expected = "uint64"
	case wit.S64:
		valid = goType.Kind() == reflect.Int64 || goType.Kind() == reflect.Int
		expected = "int64"
	case wit.F32:
		valid = goType.Kind() == reflect.Float32
		expected = "float32"
	case wit.F64:
		valid = goType.Kind() == reflect.Float64
		expected = "float64"
	case wit.Char:
		valid = goType.Kind() == reflect.Int32
		expected = "int32 (rune)"
	case wit.String:
		valid = goType.Kind() == reflect.String
		expected = "string"
	case *wit.TypeDef:
		// User-defined shapes are not checked structurally.
		return nil
	default:
		return errors.Unsupported(errors.PhaseResolve, "unsupported WIT shape")
	}

	if !valid {
		return errors.TypeMismatch(errors.PhaseResolve, nil, goType.String(), expected)
	}
	return nil
}

// ShapeName renders a WIT shape the way it is written in WIT source.
func ShapeName(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		switch k := v.Kind.(type) {
		case *wit.List:
			return "list<" + ShapeName(k.Type) + ">"
		case *wit.Own:
			return "own<" + typeDefName(k.Type) + ">"
		case *wit.Borrow:
			return "borrow<" + typeDefName(k.Type) + ">"
		}
		return typeDefName(v)
	case nil:
		return "<nil>"
	default:
		return "<unknown>"
	}
}

func typeDefName(td *wit.TypeDef) string {
	if td != nil && td.Name != nil {
		return *td.Name
	}
	return "typedef"
}

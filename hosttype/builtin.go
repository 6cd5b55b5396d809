package hosttype

import (
	"reflect"

	"go.bytecodealliance.org/wit"
)

// Builtin describes one of the element types every session knows about.
type Builtin struct {
	GoType reflect.Type
	Shape  wit.Type
	Name   string
}

// Builtins lists the builtin element types in declaration order.
func Builtins() []Builtin {
	return []Builtin{
		{GoType: reflect.TypeFor[bool](), Shape: wit.Bool{}, Name: "bool"},
		{GoType: reflect.TypeFor[int32](), Shape: wit.S32{}, Name: "s32"},
		{GoType: reflect.TypeFor[float64](), Shape: wit.F64{}, Name: "f64"},
		{GoType: reflect.TypeFor[float32](), Shape: wit.F32{}, Name: "f32"},
		{GoType: reflect.TypeFor[int64](), Shape: wit.S64{}, Name: "s64"},
		{GoType: reflect.TypeFor[string](), Shape: wit.String{}, Name: "string"},
	}
}

// DeclareBuiltins declares every builtin element type in scope.
func DeclareBuiltins(u *Universe, scope Scope) error {
	for _, b := range Builtins() {
		if _, err := u.Declare(b.GoType, b.Name, scope, b.Shape); err != nil {
			return err
		}
	}
	return nil
}

package instantiate

import (
	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
)

// Guard decides whether an instantiation over elem may be defined from
// the requesting scope.
type Guard interface {
	Check(elem hosttype.Descriptor, requesting hosttype.Scope) error
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(elem hosttype.Descriptor, requesting hosttype.Scope) error

func (f GuardFunc) Check(elem hosttype.Descriptor, requesting hosttype.Scope) error {
	return f(elem, requesting)
}

// SameScope requires the instantiation to be requested from the element
// type's own scope.
type SameScope struct{}

func (SameScope) Check(elem hosttype.Descriptor, requesting hosttype.Scope) error {
	if requesting == "" {
		return errors.NotInitialized(errors.PhaseInstantiate, "current module")
	}
	if elem.Scope != requesting {
		return &errors.ScopeMismatchError{
			Element:      elem.Name,
			ElementScope: string(elem.Scope),
			RequestScope: string(requesting),
		}
	}
	return nil
}

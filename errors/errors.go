package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve     Phase = "resolve"     // element type resolution
	PhaseDefine      Phase = "define"      // registry insertion
	PhaseInstantiate Phase = "instantiate" // generic instantiation
	PhaseBind        Phase = "bind"        // method table construction
	PhaseOperation   Phase = "operation"   // bound method calls
	PhaseExport      Phase = "export"      // host module export
	PhaseLoad        Phase = "load"        // module loading
	PhaseConfig      Phase = "config"      // manifest and options
)

// Kind categorizes the error
type Kind string

const (
	KindAlreadyDefined    Kind = "already_defined"
	KindScopeMismatch     Kind = "scope_mismatch"
	KindBuilderIncomplete Kind = "builder_incomplete"
	KindConstraint        Kind = "constraint"
	KindNotFound          Kind = "not_found"
	KindNotInitialized    Kind = "not_initialized"
	KindInvalidInput      Kind = "invalid_input"
	KindUnsupported       Kind = "unsupported"
	KindTypeMismatch      Kind = "type_mismatch"
	KindRegistration      Kind = "registration"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	HostType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.HostType != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.HostType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", host type ")
			b.WriteString(e.HostType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.HostType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the path of names leading to the failure
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// HostType sets the host type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// KindOf returns the Kind of the first structured error in err's chain.
// A ScopeMismatchError reports KindScopeMismatch. Unstructured errors
// report the empty Kind.
func KindOf(err error) Kind {
	var sm *ScopeMismatchError
	var e *Error
	switch {
	case errors.As(err, &e):
		return e.Kind
	case errors.As(err, &sm):
		return KindScopeMismatch
	}
	return ""
}

// ScopeMismatchError is returned when a generic instantiation is requested
// from a scope other than the one owning its element type.
type ScopeMismatchError struct {
	Element      string
	ElementScope string
	RequestScope string
}

func (e *ScopeMismatchError) Error() string {
	return fmt.Sprintf("[instantiate] scope_mismatch: instantiation over %s must be defined in %s (the scope of %s), requested from %s",
		e.Element, e.ElementScope, e.Element, e.RequestScope)
}

// Is reports whether target matches this error type
func (e *ScopeMismatchError) Is(target error) bool {
	switch t := target.(type) {
	case *ScopeMismatchError:
		return true
	case *Error:
		return t.Kind == KindScopeMismatch
	}
	return false
}

// Convenience constructors for common error patterns

// AlreadyDefined creates a duplicate definition error
func AlreadyDefined(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAlreadyDefined,
		Detail: fmt.Sprintf("%s %q already defined", what, name),
		Value:  name,
	}
}

// BuilderIncomplete creates the fault raised when a kind builder left a
// required handle unpopulated
func BuilderIncomplete(key, layout string) *Error {
	return &Error{
		Phase:    PhaseInstantiate,
		Kind:     KindBuilderIncomplete,
		HostType: key,
		Detail:   fmt.Sprintf("builder did not populate the %s handle", layout),
	}
}

// Constraint creates a precondition violation error for an operation argument
func Constraint(op string, value any, detail string) *Error {
	return &Error{
		Phase:  PhaseOperation,
		Kind:   KindConstraint,
		Path:   []string{op},
		Detail: detail,
		Value:  value,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, hostType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		HostType: hostType,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a module registration error
func Registration(scope, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", scope, name),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

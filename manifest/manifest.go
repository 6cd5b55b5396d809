package manifest

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.bytecodealliance.org/wit"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
)

// DefaultStdScope is the scope that owns the builtin element types when a
// manifest does not name one.
const DefaultStdScope = "typebind:std@0.1.0"

// Manifest describes the modules a session loads.
type Manifest struct {
	// Std configures the scope owning the builtin element types.
	Std Std `yaml:"std" json:"std"`

	// Modules are loaded in order. A failing module does not stop the
	// ones after it.
	Modules []Module `yaml:"modules" json:"modules" validate:"unique=Scope,dive"`
}

// Std configures the standard scope.
type Std struct {
	// Scope owns bool, s32, s64, f32, f64 and string.
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty" validate:"required,scope"`

	// Preinstantiate creates sequences of every builtin element up front.
	Preinstantiate *bool `yaml:"preinstantiate,omitempty" json:"preinstantiate,omitempty"`
}

// Module is one scope's registrations.
type Module struct {
	Scope string `yaml:"scope" json:"scope" validate:"required,scope"`

	// Declare makes catalogue Go types visible to the host under a name.
	Declare []Native `yaml:"declare,omitempty" json:"declare,omitempty" validate:"unique=Name,dive"`

	// Sequences lists element type names, e.g. "s32", "meters" or
	// "sequence<f64>", to instantiate sequences over.
	Sequences []string `yaml:"sequences,omitempty" json:"sequences,omitempty" validate:"dive,required,typename"`
}

// Native declares one Go type.
type Native struct {
	// Name is the host-visible name.
	Name string `yaml:"name" json:"name" validate:"required,typename"`

	// Go is the catalogue key of the Go type.
	Go string `yaml:"go" json:"go" validate:"required"`

	// Shape is the WIT primitive the type is represented as.
	Shape string `yaml:"shape" json:"shape" validate:"required,oneof=bool s32 s64 f32 f64 string"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("scope", func(fl validator.FieldLevel) bool {
		_, err := hosttype.ParseScope(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("typename", func(fl validator.FieldLevel) bool {
		return validTypeName(fl.Field().String())
	})
	return v
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read manifest "+path)
	}
	return Parse(data)
}

// Parse decodes a YAML manifest, applies defaults and validates it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse manifest")
	}
	m.setDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) setDefaults() {
	if m.Std.Scope == "" {
		m.Std.Scope = DefaultStdScope
	}
	if m.Std.Preinstantiate == nil {
		on := true
		m.Std.Preinstantiate = &on
	}
}

// PreinstantiateStd reports whether std sequences are created up front.
func (m *Manifest) PreinstantiateStd() bool {
	return m.Std.Preinstantiate == nil || *m.Std.Preinstantiate
}

// Validate checks field constraints and that no module reuses the std scope.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(strings.Split(fe.Namespace(), ".")...).
				Value(fe.Value()).
				Detail("failed %q validation", fe.Tag()).
				Cause(err).
				Build()
		}
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "validate manifest")
	}
	for _, mod := range m.Modules {
		if mod.Scope == m.Std.Scope {
			return errors.New(errors.PhaseConfig, errors.KindAlreadyDefined).
				Path("Manifest", "Modules", mod.Scope).
				Detail("module reuses the std scope").
				Build()
		}
	}
	return nil
}

// Shape returns the WIT primitive named s.
func Shape(s string) (wit.Type, bool) {
	switch s {
	case "bool":
		return wit.Bool{}, true
	case "s32":
		return wit.S32{}, true
	case "s64":
		return wit.S64{}, true
	case "f32":
		return wit.F32{}, true
	case "f64":
		return wit.F64{}, true
	case "string":
		return wit.String{}, true
	}
	return nil, false
}

// SequenceElem splits "sequence<X>" into X.
func SequenceElem(name string) (string, bool) {
	inner, ok := strings.CutPrefix(name, "sequence<")
	if !ok {
		return "", false
	}
	elem, ok := strings.CutSuffix(inner, ">")
	if !ok {
		return "", false
	}
	return elem, true
}

// validTypeName accepts kebab-case identifiers optionally wrapped in any
// number of sequence<...>.
func validTypeName(s string) bool {
	for {
		inner, ok := SequenceElem(s)
		if !ok {
			break
		}
		s = inner
	}
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return false
		}
	}
	return true
}

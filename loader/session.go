package loader

import (
	stderrors "errors"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/typebind/errors"
	"github.com/wippyai/typebind/hosttype"
	"github.com/wippyai/typebind/instantiate"
	"github.com/wippyai/typebind/manifest"
	"github.com/wippyai/typebind/registry"
	"github.com/wippyai/typebind/sequence"
)

// ModuleStatus records the outcome of one LoadModule call.
type ModuleStatus struct {
	Err          error
	Scope        hosttype.Scope
	Declared     int
	Instantiated int
}

// Loaded reports whether the module registered without error.
func (s ModuleStatus) Loaded() bool {
	return s.Err == nil
}

// Session owns the type universe, mapping registry and instantiation
// engine for one host. It replaces any process-wide registry: callers
// pass the session explicitly.
// Thread-safe.
type Session struct {
	universe *hosttype.Universe
	reg      *registry.Registry
	engine   *instantiate.Engine
	kind     *sequence.Kind
	log      *zap.Logger
	natives  map[string]Native
	modules  []ModuleStatus
	std      hosttype.Scope
	id       uuid.UUID
	mu       sync.Mutex
	load     sync.Mutex
}

// New creates a session and loads the std module: the builtin element
// types and, with opts.Preinstantiate, sequences over each of them.
func New(opts Options) (*Session, error) {
	if opts.StdScope == "" {
		opts.StdScope = manifest.DefaultStdScope
	}
	if _, err := hosttype.ParseScope(string(opts.StdScope)); err != nil {
		return nil, err
	}

	id := uuid.New()
	base := opts.Logger
	if base == nil {
		base = Logger()
	}

	s := &Session{
		universe: hosttype.NewUniverse(),
		reg:      registry.New(),
		kind:     sequence.NewKind(),
		log:      base.With(zap.String("session", id.String())),
		natives:  make(map[string]Native, len(opts.Natives)),
		std:      opts.StdScope,
		id:       id,
	}
	for name, n := range opts.Natives {
		s.natives[name] = n
	}
	s.engine = instantiate.New(s.universe, s.reg, instantiate.Options{Guard: opts.Guard})
	if err := s.engine.RegisterKind(s.kind); err != nil {
		return nil, err
	}

	err := s.LoadModule(string(opts.StdScope), func(m *Module) error {
		for _, b := range hosttype.Builtins() {
			if _, err := m.Declare(b.GoType, b.Name, b.Shape); err != nil {
				return err
			}
		}
		if !opts.Preinstantiate {
			return nil
		}
		for _, b := range hosttype.Builtins() {
			if _, err := m.Instantiate(registry.NewKey(registry.KindSequence, b.GoType)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the session identifier attached to its log lines.
func (s *Session) ID() uuid.UUID { return s.id }

// StdScope returns the scope owning the builtin element types.
func (s *Session) StdScope() hosttype.Scope { return s.std }

// Universe returns the session's host type system.
func (s *Session) Universe() *hosttype.Universe { return s.universe }

// Registry returns the session's mapping registry.
func (s *Session) Registry() *registry.Registry { return s.reg }

// Engine returns the session's instantiation engine.
func (s *Session) Engine() *instantiate.Engine { return s.engine }

// Kind returns the sequence builder.
func (s *Session) Kind() *sequence.Kind { return s.kind }

// Static returns the dispatcher for key.
func (s *Session) Static(key registry.Key) instantiate.Static {
	return s.engine.Static(key)
}

// Modules returns the status of every module load in order.
func (s *Session) Modules() []ModuleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ModuleStatus, len(s.modules))
	copy(out, s.modules)
	return out
}

// LoadModule makes scope current while fn registers the module's types.
// A failure halts that module only: it is recorded, logged and returned
// as a KindRegistration error. Registrations made before the failure
// remain. Module loads are serialized.
func (s *Session) LoadModule(scope string, fn func(*Module) error) error {
	sc, err := hosttype.ParseScope(scope)
	if err != nil {
		return errors.Registration(scope, "module", err)
	}

	s.load.Lock()
	defer s.load.Unlock()

	m := &Module{session: s, scope: sc, step: "module"}
	leave := s.universe.EnterScope(sc)
	err = fn(m)
	leave()

	status := ModuleStatus{Scope: sc, Declared: m.declared, Instantiated: m.instantiated}
	if err != nil {
		err = errors.Registration(scope, m.step, err)
		status.Err = err
		s.log.Error("module load failed",
			zap.String("scope", scope),
			zap.String("step", m.step),
			zap.Error(err),
		)
	} else {
		s.log.Info("module loaded",
			zap.String("scope", scope),
			zap.Int("declared", m.declared),
			zap.Int("instantiated", m.instantiated),
		)
	}

	s.mu.Lock()
	s.modules = append(s.modules, status)
	s.mu.Unlock()
	return err
}

// Apply loads every module of a manifest. The std section is consumed by
// Options.WithManifest, not here. Failing modules do not stop later ones;
// their errors are joined.
func (s *Session) Apply(mf *manifest.Manifest) error {
	var errs []error
	for _, mod := range mf.Modules {
		err := s.LoadModule(mod.Scope, func(m *Module) error {
			for _, d := range mod.Declare {
				m.step = d.Name
				native, ok := s.native(d.Go)
				if !ok {
					return errors.NotFound(errors.PhaseConfig, "native", d.Go)
				}
				shape, ok := manifest.Shape(d.Shape)
				if !ok {
					return errors.Unsupported(errors.PhaseConfig, "shape "+d.Shape)
				}
				if _, err := m.declare(native, d.Name, shape); err != nil {
					return err
				}
			}
			for _, name := range mod.Sequences {
				m.step = "sequence<" + name + ">"
				elem, err := s.ResolveName(name, m.scope)
				if err != nil {
					return err
				}
				if _, err := m.Instantiate(registry.NewKey(registry.KindSequence, elem)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// ResolveName maps a host type name to its Go type. Names declared in
// prefer win over same-named types of other scopes. "sequence<X>"
// resolves to the native sequence storage of X.
func (s *Session) ResolveName(name string, prefer hosttype.Scope) (reflect.Type, error) {
	if inner, ok := manifest.SequenceElem(name); ok {
		elem, err := s.ResolveName(inner, prefer)
		if err != nil {
			return nil, err
		}
		storage, ok := s.kind.StorageOf(elem)
		if !ok {
			return nil, errors.New(errors.PhaseResolve, errors.KindUnsupported).
				GoType(elem.String()).
				Detail("no sequence variant for %s", inner).
				Build()
		}
		return storage, nil
	}

	var found reflect.Type
	for _, d := range s.universe.Natives() {
		if d.Name != name {
			continue
		}
		if d.Scope == prefer {
			return d.GoType, nil
		}
		if found == nil {
			found = d.GoType
		}
	}
	if found == nil {
		return nil, errors.NotFound(errors.PhaseResolve, "host type", name)
	}
	return found, nil
}

func (s *Session) native(name string) (Native, bool) {
	n, ok := s.natives[name]
	return n, ok
}

// Module is the registration handle passed to LoadModule callbacks.
// It is valid only for the duration of the callback.
type Module struct {
	session      *Session
	scope        hosttype.Scope
	step         string
	declared     int
	instantiated int
}

// Scope returns the module's scope.
func (m *Module) Scope() hosttype.Scope { return m.scope }

// Session returns the owning session.
func (m *Module) Session() *Session { return m.session }

// Declare makes goType visible to the host as name, owned by this module.
// Sequences over goType additionally need sequence support; see Declare[T].
func (m *Module) Declare(goType reflect.Type, name string, shape wit.Type) (hosttype.Descriptor, error) {
	m.step = name
	d, err := m.session.universe.Declare(goType, name, m.scope, shape)
	if err != nil {
		return hosttype.Descriptor{}, err
	}
	m.declared++
	return d, nil
}

func (m *Module) declare(n Native, name string, shape wit.Type) (hosttype.Descriptor, error) {
	d, err := m.Declare(n.Type, name, shape)
	if err != nil {
		return d, err
	}
	if n.support != nil {
		n.support(m.session.kind)
	}
	return d, nil
}

// Instantiate creates the mapping for key from this module's scope.
func (m *Module) Instantiate(key registry.Key) (*registry.Mapping, error) {
	m.step = key.String()
	existed := m.session.reg.Len()
	mapping, err := m.session.engine.Instantiate(key)
	if err != nil {
		return nil, err
	}
	m.instantiated += m.session.reg.Len() - existed
	return mapping, nil
}

// Declare declares T under name in m and enables sequences over T.
func Declare[T any](m *Module, name string, shape wit.Type) (hosttype.Descriptor, error) {
	return m.declare(NativeOf[T](), name, shape)
}

// Sequence instantiates the sequence over T from m's scope.
func Sequence[T any](m *Module) (*registry.Mapping, error) {
	return m.Instantiate(registry.KeyFor[T](registry.KindSequence))
}

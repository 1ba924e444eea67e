package extensibility

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/comalice/chartkit/internal/core"
	clog "github.com/comalice/chartkit/internal/log"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrUnknownGuard   = errors.New("unknown guard")
	ErrUnknownHandler = errors.New("unknown state handler")
	ErrDuplicate      = errors.New("already registered")
)

// Registry resolves action names and guard expressions for core.Compile.
// Lookup order: registered entries, then built-ins (actions) or expressions
// (guards). It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	actions  map[string]core.Action
	guards   map[string]core.Guard
	handlers map[string]core.HandlerFactory

	builtins    bool
	expressions bool
	log         zerolog.Logger
	traceRuns   bool
}

var (
	_ core.Binder        = (*Registry)(nil)
	_ core.HandlerBinder = (*Registry)(nil)
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBuiltins toggles the raise:, set:, incr:, unset: and log: actions. On
// by default.
func WithBuiltins(on bool) RegistryOption {
	return func(r *Registry) { r.builtins = on }
}

// WithExpressions toggles parsing unregistered guard strings as expressions.
// On by default.
func WithExpressions(on bool) RegistryOption {
	return func(r *Registry) { r.expressions = on }
}

// WithLogger sets the logger of the log: built-in and of action tracing.
func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithActionTracing wraps every bound action in LoggingAction.
func WithActionTracing(on bool) RegistryOption {
	return func(r *Registry) { r.traceRuns = on }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		actions:     make(map[string]core.Action),
		guards:      make(map[string]core.Guard),
		handlers:    make(map[string]core.HandlerFactory),
		builtins:    true,
		expressions: true,
		log:         clog.WithComponent("actions"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterAction adds a named action.
func (r *Registry) RegisterAction(name string, fn core.Action) error {
	if name == "" || fn == nil {
		return errors.New("action name and function are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actions[name]; ok {
		return fmt.Errorf("action %q: %w", name, ErrDuplicate)
	}
	r.actions[name] = fn
	return nil
}

// RegisterGuard adds a named guard.
func (r *Registry) RegisterGuard(name string, fn core.Guard) error {
	if name == "" || fn == nil {
		return errors.New("guard name and function are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.guards[name]; ok {
		return fmt.Errorf("guard %q: %w", name, ErrDuplicate)
	}
	r.guards[name] = fn
	return nil
}

// RegisterHandler adds a named state handler factory.
func (r *Registry) RegisterHandler(name string, factory core.HandlerFactory) error {
	if name == "" || factory == nil {
		return errors.New("handler name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("handler %q: %w", name, ErrDuplicate)
	}
	r.handlers[name] = factory
	return nil
}

// Handler implements core.HandlerBinder.
func (r *Registry) Handler(name string) (core.HandlerFactory, error) {
	r.mu.RLock()
	f, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownHandler, name)
	}
	return f, nil
}

// Action implements core.Binder.
func (r *Registry) Action(name string) (core.Action, error) {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()
	if !ok && r.builtins {
		var err error
		fn, ok, err = builtin(name, r.log)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, name)
	}
	if r.traceRuns {
		fn = LoggingAction(r.log, name, fn)
	}
	return fn, nil
}

// Guard implements core.Binder.
func (r *Registry) Guard(expr string) (core.Guard, error) {
	r.mu.RLock()
	fn, ok := r.guards[expr]
	r.mu.RUnlock()
	if ok {
		return fn, nil
	}
	if !r.expressions {
		return nil, fmt.Errorf("%w %q", ErrUnknownGuard, expr)
	}
	return ParseExpression(expr)
}

// Names lists the registered actions and guards, sorted.
func (r *Registry) Names() (actions, guards []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for n := range r.actions {
		actions = append(actions, n)
	}
	for n := range r.guards {
		guards = append(guards, n)
	}
	sort.Strings(actions)
	sort.Strings(guards)
	return actions, guards
}

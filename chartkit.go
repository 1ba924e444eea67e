// Package chartkit is a hierarchical statechart engine with run-to-completion
// semantics: compound, orthogonal and final states, shallow and deep history,
// completion events and deterministic conflict resolution.
//
// Charts are described as a MachineConfig, built in code or loaded from YAML
// or JSON, and compiled once into an immutable Definition. Any number of
// Instances can run on one Definition.
//
//	def, err := chartkit.Load("door.yaml")
//	inst, err := chartkit.Start(def)
//	err = inst.SendType("open")
//	fmt.Println(inst.Snapshot().Active)
package chartkit

import (
	"bytes"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/extensibility"
	"github.com/comalice/chartkit/internal/primitives"
	"github.com/comalice/chartkit/internal/production"
)

// Authoring.
type (
	MachineConfig    = primitives.MachineConfig
	StateConfig      = primitives.StateConfig
	TransitionConfig = primitives.TransitionConfig
	StateType        = primitives.StateType
	HistoryType      = primitives.HistoryType
	ActionRef        = primitives.ActionRef
	GuardRef         = primitives.GuardRef
	HandlerRef       = primitives.HandlerRef
	MachineBuilder   = primitives.MachineBuilder
	Event            = primitives.Event
	Context          = primitives.Context
	ContextView      = primitives.ContextView
)

const (
	Atomic     = primitives.Atomic
	Compound   = primitives.Compound
	Orthogonal = primitives.Orthogonal
	Final      = primitives.Final

	ShallowHistory = primitives.ShallowHistory
	DeepHistory    = primitives.DeepHistory
)

// Running.
type (
	Definition       = core.Definition
	Instance         = core.Instance
	Snapshot         = core.Snapshot
	Status           = core.Status
	Scope            = core.Scope
	Action           = core.Action
	Guard            = core.Guard
	Binder           = core.Binder
	StateHandler     = core.StateHandler
	HandlerFactory   = core.HandlerFactory
	Option           = core.Option
	Observer         = core.Observer
	ExtendedObserver = core.ExtendedObserver
	ObserverFunc     = core.ObserverFunc
	Microstep        = core.Microstep
	Discard          = core.Discard
	Actor            = core.Actor
	ActorOption      = core.ActorOption
	TieBreak         = core.TieBreak
	Registry         = extensibility.Registry
)

const (
	StatusRunning  = core.StatusRunning
	StatusDegraded = core.StatusDegraded
	StatusHalted   = core.StatusHalted
	StatusStopped  = core.StatusStopped

	FirstDeclared   = core.FirstDeclared
	HighestPriority = core.HighestPriority
)

var (
	ErrDefinition   = core.ErrDefinition
	ErrReentrancy   = core.ErrReentrancy
	ErrActionLoop   = core.ErrActionLoop
	ErrInvalidEvent = core.ErrInvalidEvent
	ErrStopped      = core.ErrStopped
	ErrHalted       = core.ErrHalted
	ErrDegraded     = core.ErrDegraded
	ErrInconsistent = core.ErrInconsistent
	ErrQueueFull    = core.ErrQueueFull
	ErrActorClosed  = core.ErrActorClosed
)

var (
	NewState          = primitives.NewStateConfig
	NewMachineBuilder = primitives.NewMachineBuilder
	NewEvent          = primitives.NewEvent

	Compile  = core.Compile
	Start    = core.Start
	Resume   = core.Resume
	NewActor = core.NewActor

	WithInstanceID        = core.WithInstanceID
	WithLogger            = core.WithLogger
	WithObserver          = core.WithObserver
	WithMaxInternalEvents = core.WithMaxInternalEvents
	WithTieBreak          = core.WithTieBreak
	WithData              = core.WithData
	WithHandlerCreated    = core.WithHandlerCreated
	WithQueueSize         = core.WithQueueSize
	WithEventSource       = core.WithEventSource

	NewRegistry = extensibility.NewRegistry
)

// Load reads a YAML or JSON document and compiles it. String actions and
// guards resolve through the built-ins and expressions of a default
// Registry; pass your own binder to LoadWith for named functions.
func Load(path string) (*Definition, error) {
	return production.LoadDefinition(path, extensibility.NewRegistry())
}

// LoadWith is Load with an explicit binder.
func LoadWith(path string, binder Binder) (*Definition, error) {
	return production.LoadDefinition(path, binder)
}

// ParseYAML compiles a YAML document held in memory.
func ParseYAML(doc []byte, binder Binder) (*Definition, error) {
	cfg, err := production.DecodeDefinition(bytes.NewReader(doc), production.FormatYAML)
	if err != nil {
		return nil, err
	}
	if binder == nil {
		binder = extensibility.NewRegistry()
	}
	return core.Compile(cfg, binder)
}

// DOT renders def as Graphviz source, highlighting the active states.
func DOT(def *Definition, active []string) string {
	return production.ExportDOT(def, active)
}

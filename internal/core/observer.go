package core

import "github.com/comalice/chartkit/internal/primitives"

// StepKind distinguishes the microsteps an observer sees.
type StepKind uint8

const (
	StepStart StepKind = iota
	StepEvent
	StepStop
)

func (k StepKind) String() string {
	switch k {
	case StepStart:
		return "start"
	case StepEvent:
		return "event"
	case StepStop:
		return "stop"
	}
	return "unknown"
}

// MarshalText renders the kind name.
func (k StepKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ActionRecord names one action that ran.
type ActionRecord struct {
	Phase      Phase  `json:"phase" yaml:"phase"`
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	Transition int    `json:"transition" yaml:"transition"` // -1 unless Phase is PhaseTransition
	Action     string `json:"action" yaml:"action"`
}

// Microstep is the delta of one completed microstep.
type Microstep struct {
	InstanceID   string
	DefinitionID string
	Seq          uint64
	Kind         StepKind
	Event        primitives.Event
	Internal     bool
	Transitions  []TransitionInfo
	Exited       []string // deepest first
	Entered      []string // shallowest first
	Actions      []ActionRecord
	GuardErrors  []error
	Err          error // *ActionExecutionError, or an ErrInconsistent wrap
	Degraded     bool
	Active       []string
	Status       Status
}

// Observer receives every completed microstep. It runs on the goroutine that
// called Start, Send or Stop; a Send from inside it is rejected with
// ReentrancyError.
type Observer interface {
	OnMicrostep(step Microstep)
}

// Discard describes an event that enabled no transition. GuardErrors lists
// the guards that failed while it was resolved.
type Discard struct {
	InstanceID   string
	DefinitionID string
	Event        primitives.Event
	Internal     bool
	GuardErrors  []error
}

// ExtendedObserver provides additional optional observation methods.
type ExtendedObserver interface {
	Observer

	// OnEventDiscarded is called for an event that enabled no transition.
	OnEventDiscarded(d Discard)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Microstep)

// OnMicrostep calls f.
func (f ObserverFunc) OnMicrostep(step Microstep) { f(step) }

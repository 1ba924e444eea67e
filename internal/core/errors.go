package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches its sentinel with errors.Is.
var (
	ErrDefinition      = errors.New("invalid statechart definition")
	ErrReentrancy      = errors.New("send while a run-to-completion cycle is in progress")
	ErrActionLoop      = errors.New("internal event bound exceeded")
	ErrGuardEvaluation = errors.New("guard evaluation failed")
	ErrActionExecution = errors.New("action execution failed")

	ErrInvalidEvent = errors.New("invalid event")
	ErrStopped      = errors.New("instance stopped")
	ErrHalted       = errors.New("instance halted")
	ErrDegraded     = errors.New("instance degraded")
	ErrInconsistent = errors.New("inconsistent configuration")
	ErrQueueFull    = errors.New("event queue full (backpressure)")
)

// DefinitionError reports every problem found while compiling a definition.
type DefinitionError struct {
	Definition string
	Problems   []error
}

func (e *DefinitionError) Error() string {
	var b strings.Builder
	if e.Definition != "" {
		fmt.Fprintf(&b, "definition %q: ", e.Definition)
	} else {
		b.WriteString("definition: ")
	}
	switch len(e.Problems) {
	case 0:
		b.WriteString(ErrDefinition.Error())
	case 1:
		b.WriteString(e.Problems[0].Error())
	default:
		fmt.Fprintf(&b, "%d problems: ", len(e.Problems))
		for i, p := range e.Problems {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(p.Error())
		}
	}
	return b.String()
}

func (e *DefinitionError) Unwrap() []error { return e.Problems }

func (e *DefinitionError) Is(target error) bool { return target == ErrDefinition }

// ReentrancyError rejects a Send made while the instance is mid-cycle.
type ReentrancyError struct {
	Event string
}

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("send %q rejected: %v; raise it from the action instead", e.Event, ErrReentrancy)
}

func (e *ReentrancyError) Is(target error) bool { return target == ErrReentrancy }

// ActionLoopError reports that one cycle processed more internal events than
// allowed. The instance is halted.
type ActionLoopError struct {
	Limit int
	Event string // next internal event that would have run
}

func (e *ActionLoopError) Error() string {
	return fmt.Sprintf("%v: more than %d internal events in one cycle (next %q)", ErrActionLoop, e.Limit, e.Event)
}

func (e *ActionLoopError) Is(target error) bool { return target == ErrActionLoop }

// GuardEvaluationError wraps a guard failure. The guard counts as false.
type GuardEvaluationError struct {
	Source     string
	Transition int
	Event      string
	Guard      string
	Err        error
}

func (e *GuardEvaluationError) Error() string {
	return fmt.Sprintf("guard %s on %s transition %d for %q: %v", e.Guard, e.Source, e.Transition, e.Event, e.Err)
}

func (e *GuardEvaluationError) Unwrap() error { return e.Err }

func (e *GuardEvaluationError) Is(target error) bool { return target == ErrGuardEvaluation }

// ActionExecutionError wraps an action failure that aborted a microstep.
type ActionExecutionError struct {
	Phase      Phase
	State      string // owning state for entry, exit and initial actions
	Transition int    // transition index for transition actions, -1 otherwise
	Action     string
	Err        error
}

func (e *ActionExecutionError) Error() string {
	where := e.State
	if e.Phase == PhaseTransition {
		where = fmt.Sprintf("transition %d", e.Transition)
	}
	return fmt.Sprintf("%s action %s (%s): %v", e.Phase, e.Action, where, e.Err)
}

func (e *ActionExecutionError) Unwrap() error { return e.Err }

func (e *ActionExecutionError) Is(target error) bool { return target == ErrActionExecution }

// IsDefinitionError reports whether err is or wraps a DefinitionError.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}

// IsReentrancyError reports whether err is or wraps a ReentrancyError.
func IsReentrancyError(err error) bool {
	var re *ReentrancyError
	return errors.As(err, &re)
}

// IsActionLoopError reports whether err is or wraps an ActionLoopError.
func IsActionLoopError(err error) bool {
	var le *ActionLoopError
	return errors.As(err, &le)
}

// panicError carries a recovered panic out of a user callback.
type panicError struct {
	value any
}

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

package production

import (
	"github.com/rs/zerolog"

	"github.com/comalice/chartkit/internal/core"
	clog "github.com/comalice/chartkit/internal/log"
)

// LogObserver writes one structured line per microstep: info for state
// changes, error for failed steps. Discarded events log at debug, or warn
// when a guard failed.
type LogObserver struct {
	log zerolog.Logger
}

var _ core.ExtendedObserver = (*LogObserver)(nil)

// NewLogObserver creates a LogObserver writing to l.
func NewLogObserver(l zerolog.Logger) *LogObserver {
	return &LogObserver{log: l}
}

// DefaultLogObserver logs through the "observer" component logger.
func DefaultLogObserver() *LogObserver {
	return NewLogObserver(clog.WithComponent("observer"))
}

func (o *LogObserver) OnMicrostep(step core.Microstep) {
	ev := o.log.Info()
	if step.Err != nil {
		ev = o.log.Error().Err(step.Err)
	}
	ev.Str(clog.FieldInstance, step.InstanceID).
		Str(clog.FieldDefinition, step.DefinitionID).
		Uint64(clog.FieldStep, step.Seq).
		Stringer("kind", step.Kind).
		Str(clog.FieldEvent, step.Event.Type).
		Bool("internal", step.Internal).
		Strs(clog.FieldExited, step.Exited).
		Strs(clog.FieldEntered, step.Entered).
		Strs(clog.FieldActive, step.Active).
		Str(clog.FieldStatus, string(step.Status)).
		Msg("microstep")
}

func (o *LogObserver) OnEventDiscarded(d core.Discard) {
	ev := o.log.Debug()
	if len(d.GuardErrors) > 0 {
		ev = o.log.Warn().Errs("guard_errors", d.GuardErrors)
	}
	ev.Str(clog.FieldInstance, d.InstanceID).
		Str(clog.FieldDefinition, d.DefinitionID).
		Str(clog.FieldEvent, d.Event.Type).
		Bool("internal", d.Internal).
		Msg("event discarded")
}

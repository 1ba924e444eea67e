package extensibility

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/chartkit/internal/core"
	clog "github.com/comalice/chartkit/internal/log"
)

// LoggingAction wraps inner and logs around its execution: debug on success,
// error on failure.
func LoggingAction(log zerolog.Logger, name string, inner core.Action) core.Action {
	return func(sc *core.Scope) error {
		start := time.Now()
		err := inner(sc)
		var ev *zerolog.Event
		if err != nil {
			ev = log.Error().Err(err)
		} else {
			ev = log.Debug()
		}
		ev.Str(clog.FieldAction, name).
			Str(clog.FieldInstance, sc.Instance().ID()).
			Str(clog.FieldState, sc.State()).
			Stringer(clog.FieldPhase, sc.Phase()).
			Str(clog.FieldEvent, sc.Event().Type).
			Dur(clog.FieldDuration, time.Since(start)).
			Msg("action executed")
		return err
	}
}

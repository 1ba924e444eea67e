package core

import (
	"github.com/rs/zerolog"

	"github.com/comalice/chartkit/internal/primitives"
)

// DefaultMaxInternalEvents bounds the internal events one cycle may process.
const DefaultMaxInternalEvents = 1000

type options struct {
	id          string
	logger      *zerolog.Logger
	observers   []Observer
	maxInternal int
	tieBreak    TieBreak
	verify      bool
	data        map[string]any

	handlerCreated func(state string, h StateHandler)
}

func defaultOptions() options {
	return options{
		maxInternal: DefaultMaxInternalEvents,
		verify:      true,
	}
}

// Option configures an Instance via the functional options pattern.
type Option func(*options)

// WithInstanceID sets the instance ID instead of a random UUID.
func WithInstanceID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithLogger sets the sink for guard and action errors and step traces.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

// WithObserver adds an observer. Observers are called in registration order.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithMaxInternalEvents sets the internal event bound of one cycle. Values
// below 1 keep the default.
func WithMaxInternalEvents(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInternal = n
		}
	}
}

// WithTieBreak selects how conflicts between unrelated sources are settled.
func WithTieBreak(tb TieBreak) Option {
	return func(o *options) {
		o.tieBreak = tb
	}
}

// WithConsistencyChecks toggles the configuration check run after every
// microstep. It is on by default.
func WithConsistencyChecks(on bool) Option {
	return func(o *options) {
		o.verify = on
	}
}

// WithData seeds the extended context.
func WithData(values map[string]any) Option {
	return func(o *options) {
		o.data = values
	}
}

// WithContext seeds the extended context from an existing Context.
func WithContext(ctx *primitives.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.data = ctx.Snapshot()
		}
	}
}

// WithHandlerCreated calls fn with every state handler the instance makes,
// before its Entered hook runs.
func WithHandlerCreated(fn func(state string, h StateHandler)) Option {
	return func(o *options) {
		o.handlerCreated = fn
	}
}

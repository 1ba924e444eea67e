package production

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comalice/chartkit/internal/core"
)

// Metrics is a core.ExtendedObserver exporting engine counters to
// Prometheus. Labels are bounded by the definitions in use: instance IDs and
// event names are never labels.
type Metrics struct {
	microsteps   *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	discarded    *prometheus.CounterVec
	guardErrors  *prometheus.CounterVec
	actionErrors *prometheus.CounterVec
	statuses     *prometheus.CounterVec
	delta        *prometheus.HistogramVec
}

var _ core.ExtendedObserver = (*Metrics)(nil)

// NewMetrics registers the collectors with reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		microsteps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_microsteps_total",
			Help: "Completed microsteps by kind (start, event, stop)",
		}, []string{"definition", "kind"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_transitions_total",
			Help: "Transitions fired",
		}, []string{"definition"}),
		discarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_events_discarded_total",
			Help: "Events that enabled no transition",
		}, []string{"definition"}),
		guardErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_guard_errors_total",
			Help: "Guard evaluations that failed and counted as false",
		}, []string{"definition"}),
		actionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_action_errors_total",
			Help: "Action failures by phase",
		}, []string{"definition", "phase"}),
		statuses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chartkit_status_transitions_total",
			Help: "Instances entering a terminal or degraded status",
		}, []string{"definition", "status"}),
		delta: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chartkit_microstep_states_changed",
			Help:    "States exited plus entered per microstep",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}, []string{"definition"}),
	}
}

func (m *Metrics) OnMicrostep(step core.Microstep) {
	def := step.DefinitionID
	m.microsteps.WithLabelValues(def, step.Kind.String()).Inc()
	m.transitions.WithLabelValues(def).Add(float64(len(step.Transitions)))
	m.guardErrors.WithLabelValues(def).Add(float64(len(step.GuardErrors)))
	m.delta.WithLabelValues(def).Observe(float64(len(step.Exited) + len(step.Entered)))

	if step.Err != nil {
		var ae *core.ActionExecutionError
		for err := range actionErrors(step.Err) {
			if errors.As(err, &ae) {
				m.actionErrors.WithLabelValues(def, ae.Phase.String()).Inc()
			}
		}
	}
	switch step.Status {
	case core.StatusDegraded:
		if step.Degraded {
			m.statuses.WithLabelValues(def, string(step.Status)).Inc()
		}
	case core.StatusHalted, core.StatusStopped:
		m.statuses.WithLabelValues(def, string(step.Status)).Inc()
	}
}

func (m *Metrics) OnEventDiscarded(d core.Discard) {
	m.discarded.WithLabelValues(d.DefinitionID).Inc()
	m.guardErrors.WithLabelValues(d.DefinitionID).Add(float64(len(d.GuardErrors)))
}

// actionErrors yields err itself, or the members of a joined error.
func actionErrors(err error) func(func(error) bool) {
	return func(yield func(error) bool) {
		if j, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range j.Unwrap() {
				if !yield(e) {
					return
				}
			}
			return
		}
		yield(err)
	}
}

package observability

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the funnel collectors.
type Metrics struct {
	stepVisits  *prometheus.CounterVec
	completions prometheus.Counter
	phases      *prometheus.CounterVec
	errors      *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_step_visits_total",
			Help: "Total number of step entries, by step kind.",
		}, []string{"kind"}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "funnel_runs_completed_total",
			Help: "Total number of runs that moved past their last step.",
		}),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_phase_transitions_total",
			Help: "Total number of controller phase transitions.",
		}, []string{"from", "to"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_runtime_errors_total",
			Help: "Total number of structural errors, by kind.",
		}, []string{"kind"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_submissions_total",
			Help: "Total number of finalized submissions, by origin.",
		}, []string{"origin"}),
	}
	if reg != nil {
		reg.MustRegister(m.stepVisits, m.completions, m.phases, m.errors, m.submissions)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.stepVisits.WithLabelValues(e.StepKind.String()).Inc()
		},
		OnCompleted: func(context.Context, *domain.StepEvent) {
			m.completions.Inc()
		},
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			m.phases.WithLabelValues(string(e.From), string(e.To)).Inc()
			if e.To == domain.PhaseError {
				m.errors.WithLabelValues(string(e.ErrorKind)).Inc()
			}
		},
		OnSubmission: func(_ context.Context, e *domain.SubmissionEvent) {
			m.submissions.WithLabelValues(string(e.Origin)).Inc()
		},
	}
}

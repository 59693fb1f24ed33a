package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-formstate/pkg/validator"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "formstate"

// Observer records validator activity as Prometheus metrics. It satisfies
// validator.Observer and prometheus.Collector, so one value is both passed
// to validator.WithObserver and registered.
type Observer struct {
	submits     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	validations *prometheus.CounterVec
	issues      *prometheus.HistogramVec
}

var (
	_ validator.Observer   = (*Observer)(nil)
	_ prometheus.Collector = (*Observer)(nil)
)

// NewObserver builds the metric vectors under namespace (DefaultNamespace
// when empty). Every series is labelled by form name.
func NewObserver(namespace string) *Observer {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Observer{
		submits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submit_total",
				Help:      "Submission attempts by outcome.",
			},
			[]string{"form", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submit_duration_seconds",
				Help:      "Time spent in submit callbacks.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"form"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_total",
				Help:      "Schema validation runs by result.",
			},
			[]string{"form", "result"},
		),
		issues: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_issues",
				Help:      "Issues reported per failing validation run.",
				Buckets:   []float64{1, 2, 5, 10, 25},
			},
			[]string{"form"},
		),
	}
}

// SubmitObserved implements validator.Observer. Only attempts that reached
// the callback contribute to the duration histogram.
func (o *Observer) SubmitObserved(form string, outcome validator.Outcome, elapsed time.Duration) {
	o.submits.WithLabelValues(form, string(outcome)).Inc()
	if elapsed > 0 {
		o.duration.WithLabelValues(form).Observe(elapsed.Seconds())
	}
}

// ValidationObserved implements validator.Observer.
func (o *Observer) ValidationObserved(form string, issues int) {
	if issues == 0 {
		o.validations.WithLabelValues(form, "valid").Inc()
		return
	}
	o.validations.WithLabelValues(form, "invalid").Inc()
	o.issues.WithLabelValues(form).Observe(float64(issues))
}

// Describe implements prometheus.Collector.
func (o *Observer) Describe(ch chan<- *prometheus.Desc) {
	o.submits.Describe(ch)
	o.duration.Describe(ch)
	o.validations.Describe(ch)
	o.issues.Describe(ch)
}

// Collect implements prometheus.Collector.
func (o *Observer) Collect(ch chan<- prometheus.Metric) {
	o.submits.Collect(ch)
	o.duration.Collect(ch)
	o.validations.Collect(ch)
	o.issues.Collect(ch)
}

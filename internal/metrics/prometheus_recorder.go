package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration *prom.HistogramVec
	runDuration  prom.Histogram
	stepResults  *prom.CounterVec
	runOutcomes  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers metrics on the registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "stylepub",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual publish steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "stylepub",
			Name:      "run_duration_seconds",
			Help:      "Total publish run duration",
			Buckets:   prom.DefBuckets,
		}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stylepub",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stylepub",
			Name:      "run_outcomes_total",
			Help:      "Publish run outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.stepDuration, pr.runDuration, pr.stepResults, pr.runOutcomes)
	return pr
}

func (pr *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	pr.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	pr.runDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	pr.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncRunOutcome(outcome string) {
	pr.runOutcomes.WithLabelValues(outcome).Inc()
}

// HTTPHandler returns an http.Handler serving the registry's metrics.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

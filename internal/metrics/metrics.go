// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultFallback = "fallback"
	ResultSkipped  = "skipped"
	ResultError    = "error"
)

var (
	// Registry holds every chronosec collector plus the Go and process collectors.
	Registry = prometheus.NewRegistry()

	TimelinesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronosec_timelines_generated_total",
		Help: "Timelines generated, by framework rule set.",
	}, []string{"framework"})

	AIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronosec_ai_requests_total",
		Help: "AI enhancement requests, by operation and outcome.",
	}, []string{"operation", "result"})

	Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronosec_exports_total",
		Help: "Exported documents, by produced format.",
	}, []string{"format"})

	IntakeEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronosec_intake_events_total",
		Help: "Intake queue events, by outcome.",
	}, []string{"result"})

	ProgressUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chronosec_progress_updates_total",
		Help: "Step completion changes.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TimelinesGenerated,
		AIRequests,
		Exports,
		IntakeEvents,
		ProgressUpdates,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

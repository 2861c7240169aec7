// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts requests by method and response status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gottadoit_http_requests_total",
		Help: "HTTP requests processed, by method and status code.",
	}, []string{"method", "status"})

	// Dispatches counts interpreted button dispatches by action type.
	// Unresolved dispatches are counted under "noop".
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gottadoit_onboarding_dispatch_total",
		Help: "Onboarding button dispatches, by action type.",
	}, []string{"action_type"})

	// PanicRecoveries counts requests that ended in a recovered panic.
	PanicRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gottadoit_http_panic_recoveries_total",
		Help: "HTTP requests that panicked and were recovered.",
	})

	// EffectFailures counts swallowed outbound effect failures.
	EffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gottadoit_onboarding_effect_failures_total",
		Help: "Best-effort outbound effects that failed, by effect type.",
	}, []string{"effect_type"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

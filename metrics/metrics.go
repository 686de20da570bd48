// Package metrics exposes renewal engine counters through a dedicated
// prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "renewal"

// Recorder is nil-safe: a nil *Recorder records nothing, so engine code
// never needs to check whether metrics are enabled.
type Recorder struct {
	registry *prometheus.Registry

	quotes      *prometheus.CounterVec
	renewals    *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	collected   prometheus.Counter
	httpLatency *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry. withRuntime adds the Go
// runtime and process collectors.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}))
	}

	r := &Recorder{
		registry: reg,
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Payment quotes produced, by method and promo.",
		}, []string{"method", "promo"}),
		renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renewals_total",
			Help:      "Renewal attempts, by outcome.",
		}, []string{"outcome"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_evaluations_total",
			Help:      "Policy status evaluations, by resulting status.",
		}, []string{"status"}),
		collected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collected_rupees_total",
			Help:      "Sum of totals paid on committed renewals.",
		}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(r.quotes, r.renewals, r.evaluations, r.collected, r.httpLatency)
	return r
}

func (r *Recorder) Quote(method, promo string) {
	if r == nil {
		return
	}
	r.quotes.WithLabelValues(method, promo).Inc()
}

func (r *Recorder) Renewal(outcome string) {
	if r == nil {
		return
	}
	r.renewals.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Evaluation(status string) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(status).Inc()
}

func (r *Recorder) Collected(total float64) {
	if r == nil {
		return
	}
	r.collected.Add(total)
}

func (r *Recorder) HTTPRequest(route, status string, seconds float64) {
	if r == nil {
		return
	}
	r.httpLatency.WithLabelValues(route, status).Observe(seconds)
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry is exposed for tests (testutil.ToFloat64 and friends).
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

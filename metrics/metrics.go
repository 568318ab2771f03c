/*
Package metrics exposes Prometheus instrumentation for the shop.

PURPOSE:
  Counts orders by kind and outcome, ledger volume by resource and
  direction, and HTTP request latency. Uses its own registry so tests can
  build as many Recorders as they like.

SERIES:
  potion_shop_orders_total{kind, outcome}             applied|replayed|rejected
  potion_shop_ledger_change_total{resource, direction} credit|debit, absolute units
  potion_shop_http_request_duration_seconds{method, route, status}
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/potion-shop/ledger"
)

const namespace = "potion_shop"

// Recorder implements shop.Observer and provides HTTP middleware.
type Recorder struct {
	registry *prometheus.Registry
	orders   *prometheus.CounterVec
	changes  *prometheus.CounterVec
	requests *prometheus.HistogramVec
}

// New registers the shop collectors plus the Go and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Idempotent orders by kind and outcome.",
		}, []string{"kind", "outcome"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_change_total",
			Help:      "Absolute ledger change posted by orders, by resource and direction.",
		}, []string{"resource", "direction"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	r.registry.MustRegister(
		r.orders, r.changes, r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// =============================================================================
// shop.Observer
// =============================================================================

func (r *Recorder) OrderApplied(kind string, entries []ledger.Entry) {
	r.orders.WithLabelValues(kind, "applied").Inc()
	for _, e := range entries {
		switch {
		case e.Change > 0:
			r.changes.WithLabelValues(string(e.Resource), "credit").Add(float64(e.Change))
		case e.Change < 0:
			r.changes.WithLabelValues(string(e.Resource), "debit").Add(float64(-e.Change))
		}
	}
}

func (r *Recorder) OrderReplayed(kind string) {
	r.orders.WithLabelValues(kind, "replayed").Inc()
}

func (r *Recorder) OrderRejected(kind string, _ error) {
	r.orders.WithLabelValues(kind, "rejected").Inc()
}

// =============================================================================
// HTTP
// =============================================================================

// Middleware records request latency labelled by the chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rc := chi.RouteContext(req.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.requests.WithLabelValues(req.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wthr_http_requests_total",
			Help: "Total requests by route, method, and status.",
		},
		[]string{"route", "method", "status"},
	)
	upstreamCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wthr_upstream_requests_total",
			Help: "Requests to the geocoding and forecast APIs by outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	lookupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wthr_lookups_total",
			Help: "Widget lookups by trigger (input, search, select) and outcome.",
		},
		[]string{"trigger", "outcome"},
	)
	staleCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wthr_stale_responses_total",
			Help: "Responses discarded because a newer request superseded them.",
		},
		[]string{"trigger"},
	)
	sessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wthr_active_sessions",
		Help: "Widget sessions currently held in memory.",
	})
)

func init() {
	prometheus.MustRegister(requestCounter, upstreamCounter, lookupCounter, staleCounter, sessionsGauge)
}

// ObserveUpstream matches weather.UpstreamObserver.
func ObserveUpstream(endpoint, outcome string) {
	upstreamCounter.WithLabelValues(endpoint, outcome).Inc()
}

// Sessions records widget session outcomes; it satisfies widget.Observer.
type Sessions struct{}

// Lookup counts a finished session operation.
func (Sessions) Lookup(trigger, outcome string) {
	lookupCounter.WithLabelValues(trigger, outcome).Inc()
}

// Stale counts a discarded response.
func (Sessions) Stale(trigger string) {
	staleCounter.WithLabelValues(trigger).Inc()
}

// SetSessions records the current session count; it matches
// widget.Registry.OnChange.
func SetSessions(n int) {
	sessionsGauge.Set(float64(n))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts requests by chi route pattern so path parameters and
// query strings do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestCounter.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

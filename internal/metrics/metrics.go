package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyproxy_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skyproxy_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	cacheResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyproxy_cache_results_total",
			Help: "Observation responses by X-Cache result.",
		},
		[]string{"result"},
	)

	upstreamErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyproxy_upstream_errors_total",
			Help: "Failed upstream search requests.",
		},
	)

	upstreamDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skyproxy_upstream_duration_seconds",
			Help:    "Upstream search request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	engineStartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skydrone_engine_starts_total",
			Help: "Engine starts.",
		},
	)

	engineStopsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skydrone_engine_stops_total",
			Help: "Engine stops.",
		},
	)

	observationsAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skydrone_observations_applied_total",
			Help: "Observation snapshots applied to the running engine.",
		},
	)

	evolutionTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skydrone_evolution_ticks_total",
			Help: "Autonomous evolution steps applied.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(cacheResultsTotal)
	prometheus.MustRegister(upstreamErrorsTotal)
	prometheus.MustRegister(upstreamDurationSeconds)
	prometheus.MustRegister(engineStartsTotal)
	prometheus.MustRegister(engineStopsTotal)
	prometheus.MustRegister(observationsAppliedTotal)
	prometheus.MustRegister(evolutionTicksTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCacheResult counts one observation response by its X-Cache value.
func ObserveCacheResult(result string) {
	cacheResultsTotal.WithLabelValues(result).Inc()
}

// ObserveUpstream records one upstream search and whether it failed.
func ObserveUpstream(d time.Duration, err error) {
	upstreamDurationSeconds.Observe(d.Seconds())
	if err != nil {
		upstreamErrorsTotal.Inc()
	}
}

// EngineRecorder forwards engine lifecycle events to the default registry.
type EngineRecorder struct{}

func (EngineRecorder) Started()            { engineStartsTotal.Inc() }
func (EngineRecorder) Stopped()            { engineStopsTotal.Inc() }
func (EngineRecorder) ObservationApplied() { observationsAppliedTotal.Inc() }
func (EngineRecorder) EvolutionTicked()    { evolutionTicksTotal.Inc() }

// RegisterOutputLevel exposes the engine's RMS output level as a gauge
// sampled at scrape time. Registering twice is not an error.
func RegisterOutputLevel(level func() float64) error {
	g := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "skydrone_output_level",
			Help: "RMS of the most recent audio output.",
		},
		level,
	)
	if err := prometheus.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// normalizeRoute keeps the path label bounded; anything unknown is "other".
func normalizeRoute(path string) string {
	switch path {
	case "/", "/api/observations", "/healthz", "/metrics":
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}

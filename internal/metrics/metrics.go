package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Analyses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spreadscope_analyses_total",
		Help: "Analyses finished, by final status",
	}, []string{"status"})
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "spreadscope_analysis_duration_seconds",
		Help:    "End-to-end analysis duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	DetectorDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spreadscope_detector_duration_seconds",
		Help:    "Per-detector compute duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"detector"})
	StoreWriteErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spreadscope_store_write_errors_total",
		Help: "Swallowed per-item storage write failures",
	}, []string{"kind"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spreadscope_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	CollectedEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spreadscope_collected_events_total",
		Help: "Cascade events collected from the X API",
	}, []string{"type"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spreadscope_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spreadscope_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(Analyses, AnalysisDuration, DetectorDuration, StoreWriteErrors,
		APIRetries, CollectedEvents, CommandRuns, CommandErrors)
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
// An empty addr falls back to METRICS_ADDR; if that is empty too nothing starts.
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	h := Handler()
	go func() { _ = http.ListenAndServe(addr, h) }()
}

// ObserveAnalysis records a finished analysis.
func ObserveAnalysis(status string, start time.Time) {
	Analyses.WithLabelValues(status).Inc()
	AnalysisDuration.Observe(time.Since(start).Seconds())
}

func ObserveDetector(detector string, start time.Time) {
	DetectorDuration.WithLabelValues(detector).Observe(time.Since(start).Seconds())
}

func IncStoreWriteError(kind string) { StoreWriteErrors.WithLabelValues(kind).Inc() }

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

func AddCollected(eventType string, n int) { CollectedEvents.WithLabelValues(eventType).Add(float64(n)) }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }

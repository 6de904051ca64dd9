// Package metrics provides Prometheus metrics for the Tabula server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tabula_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	treeMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_tree_mutations_total",
			Help: "Structural tree operations by kind and outcome",
		},
		[]string{"op", "status"},
	)

	contentSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_content_saves_total",
			Help: "Content entry writes triggered by editing",
		},
		[]string{"status"},
	)

	contentSaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tabula_content_save_duration_seconds",
			Help:    "Time spent serializing and persisting an edited document",
			Buckets: prometheus.DefBuckets,
		},
	)

	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_imports_total",
			Help: "CSV documents imported by source and outcome",
		},
		[]string{"source", "status"},
	)

	treeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tabula_tree_nodes",
			Help: "Number of nodes in the persisted forest",
		},
	)

	treeFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tabula_tree_files",
			Help: "Number of file nodes in the persisted forest",
		},
	)

	contentEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tabula_content_entries",
			Help: "Number of entries in the persisted content store",
		},
	)

	storeNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabula_store_notifications_total",
			Help: "Change notifications published per store key",
		},
		[]string{"key"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies keyed by the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RecordMutation counts one structural tree operation.
func RecordMutation(op string, err error) {
	treeMutationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// RecordSave counts one content save and its duration.
func RecordSave(d time.Duration, err error) {
	contentSavesTotal.WithLabelValues(outcome(err)).Inc()
	contentSaveDuration.Observe(d.Seconds())
}

// RecordImport counts one import attempt.
func RecordImport(source string, err error) {
	importsTotal.WithLabelValues(source, outcome(err)).Inc()
}

// SetWorkspaceSize publishes the size of the persisted snapshot. files and
// entries differ only when the file/content invariant is broken.
func SetWorkspaceSize(nodes, files, entries int) {
	treeNodes.Set(float64(nodes))
	treeFiles.Set(float64(files))
	contentEntries.Set(float64(entries))
}

// RecordNotification counts one store change notification.
func RecordNotification(key string) {
	storeNotifications.WithLabelValues(key).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

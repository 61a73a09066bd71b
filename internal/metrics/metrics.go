// Package metrics exposes the Prometheus instruments of the analytics service.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulse"

// reportBuckets covers sub-millisecond in-memory reports up to multi-second
// reports over large response sets fetched from a remote store.
var reportBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Recorder holds the service instruments. A nil Recorder records nothing.
type Recorder struct {
	reportDuration *prometheus.HistogramVec
	reportErrors   *prometheus.CounterVec
	malformed      *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// NewRecorder creates the instruments and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent building an analytics report.",
			Buckets:   reportBuckets,
		}, []string{"report", "status"}),
		reportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_errors_total",
			Help:      "Analytics report failures by error code.",
		}, []string{"report", "code"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_answers_total",
			Help:      "Answer records dropped from aggregation.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
	for _, c := range []prometheus.Collector{r.reportDuration, r.reportErrors, r.malformed, r.httpRequests} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) ObserveReport(report, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.reportDuration.WithLabelValues(report, status).Observe(d.Seconds())
}

func (r *Recorder) ReportError(report, code string) {
	if r == nil {
		return
	}
	r.reportErrors.WithLabelValues(report, code).Inc()
}

func (r *Recorder) MalformedAnswer(reason string) {
	if r == nil {
		return
	}
	r.malformed.WithLabelValues(reason).Inc()
}

func (r *Recorder) HTTPRequest(method, route string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the scrape endpoint for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

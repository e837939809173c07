package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dictwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dictwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "route", "status"},
	)
	codecOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dictwire",
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Codec encode and decode calls.",
		},
		[]string{"codec", "op", "namespace", "success"},
	)
	codecDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dictwire",
			Subsystem: "codec",
			Name:      "operation_duration_seconds",
			Help:      "Codec call duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"codec", "op", "namespace", "success"},
	)
	codecBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dictwire",
			Subsystem: "codec",
			Name:      "wire_bytes",
			Help:      "Wire size of encoded or decoded messages.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"codec", "op", "namespace"},
	)
	distinctions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dictwire",
			Subsystem: "diff",
			Name:      "distinctions_total",
			Help:      "Distinctions reported by dictionary comparisons.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecOps, codecDuration, codecBytes, distinctions)
	})
}

func RecordHTTPRequest(service, method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, route, statusLabel).Observe(duration.Seconds())
}

// RecordCodec counts one codec call. size is the wire size and is only
// observed for successful calls.
func RecordCodec(codec, op, namespace string, size int, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	codecOps.WithLabelValues(codec, op, namespace, successLabel).Inc()
	codecDuration.WithLabelValues(codec, op, namespace, successLabel).Observe(duration.Seconds())
	if success {
		codecBytes.WithLabelValues(codec, op, namespace).Observe(float64(size))
	}
}

func RecordDistinction(kind string) {
	RegisterMetrics()
	distinctions.WithLabelValues(kind).Inc()
}

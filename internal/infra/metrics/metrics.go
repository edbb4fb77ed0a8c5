// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		conversionsTotal,
		conversionLatencyMs,
		artifactsDeliveredTotal,
		inboundBytes,
	)
}

var (
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Conversion requests by outcome (succeeded/rejected/service_error/download_error/unsupported).",
		},
		[]string{"status"},
	)

	conversionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conversion_latency_ms",
			Help:    "Round trip of POST /convert in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"success"},
	)

	artifactsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifacts_delivered_total",
			Help: "Converted artifacts relayed back to users, by format and status.",
		},
		[]string{"format", "status"},
	)

	inboundBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inbound_file_bytes",
			Help:    "Size of uploaded source files.",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncConversion(status string) {
	conversionsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveConversionLatency(d time.Duration, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	conversionLatencyMs.WithLabelValues(label).Observe(float64(d.Milliseconds()))
}

func IncArtifact(format, status string) {
	artifactsDeliveredTotal.WithLabelValues(norm(format), norm(status)).Inc()
}

func ObserveInboundBytes(n int) {
	inboundBytes.Observe(float64(n))
}

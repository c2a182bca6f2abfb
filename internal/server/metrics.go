package server

import (
	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pocode_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pocode_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Codec metrics
	encodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pocode_encode_total",
			Help: "Total number of encode operations",
		},
		[]string{"format", "outcome"}, // outcome: success, invalid, error
	)

	decodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pocode_decode_total",
			Help: "Total number of decode operations",
		},
		[]string{"format", "outcome"}, // outcome: success, invalid, failed, error
	)

	symbolSizeModules = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pocode_symbol_size_modules",
			Help:    "Width in modules of encoded symbols",
			Buckets: []float64{10, 15, 19, 27, 41, 61, 89, 113, 151},
		},
		[]string{"format"},
	)

	rsCorrectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pocode_rs_corrections_total",
			Help: "Codewords repaired by Reed-Solomon during decoding",
		},
		[]string{"format"},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pocode_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pocode_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pocode_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pocode_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

// outcome classifies an operation result for the codec counters.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch _, kind := statusForError(err); kind {
	case "invalid_request":
		return "invalid"
	case "decode_failed":
		return "failed"
	default:
		return "error"
	}
}

func recordEncode(format barcode.Format, symbol *barcode.Symbol, err error) {
	encodeTotal.WithLabelValues(format.String(), outcome(err)).Inc()
	if symbol != nil {
		symbolSizeModules.WithLabelValues(symbol.Format.String()).Observe(float64(symbol.Width))
	}
}

func recordDecode(format barcode.Format, result *barcode.DecodeResult, err error) {
	if result != nil {
		format = result.Format
		if result.ErrorsCorrected > 0 {
			rsCorrectionsTotal.WithLabelValues(format.String()).Add(float64(result.ErrorsCorrected))
		}
	}
	decodeTotal.WithLabelValues(format.String(), outcome(err)).Inc()
}

func recordImageDecode(format barcode.Format, results []barcode.ImageResult, err error) {
	if err != nil {
		decodeTotal.WithLabelValues(format.String(), outcome(err)).Inc()
		return
	}
	for _, res := range results {
		decodeTotal.WithLabelValues(res.Format.String(), "success").Inc()
		if res.ErrorsCorrected > 0 {
			rsCorrectionsTotal.WithLabelValues(res.Format.String()).Add(float64(res.ErrorsCorrected))
		}
	}
}

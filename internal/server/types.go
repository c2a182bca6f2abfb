// Package server exposes the codecs over HTTP and WebSocket.
package server

import (
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	backend       barcode.Backend
	defaults      barcode.EncodeOptions
	render        barcode.RenderOptions
	corsOrigin    string
	maxUploadMB   int64
	timeoutSec    int
	maxBatchItems int
	rateLimiter   *RateLimiter
}

// RateLimitConfig holds per-client limits. A zero limit is not enforced.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// Config holds server configuration.
type Config struct {
	Host          string
	Port          int
	CORSOrigin    string
	MaxUploadMB   int64
	TimeoutSec    int
	MaxBatchItems int
	// Defaults fill the fields an encode request leaves empty.
	Defaults barcode.EncodeOptions
	Render   barcode.RenderOptions
	// Backend decodes uploaded images; nil selects barcode.NewBackend.
	Backend   barcode.Backend
	RateLimit RateLimitConfig
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Backend string `json:"backend"`
	Time    string `json:"time"`
}

// FormatsResponse is returned by GET /formats.
type FormatsResponse struct {
	Formats []barcode.FormatInfo `json:"formats"`
	Count   int                  `json:"count"`
}

// EncodeRequest is the body of POST /encode. Empty fields take the
// server defaults. DataBase64 wins over Text when both are set.
type EncodeRequest struct {
	Format     string `json:"format,omitempty"`
	Text       string `json:"text,omitempty"`
	DataBase64 string `json:"data_base64,omitempty"`
	ECC        int    `json:"ecc,omitempty"`
	Layers     int    `json:"layers,omitempty"`
	Shape      string `json:"shape,omitempty"`
	Version    int    `json:"version,omitempty"`
	Charset    string `json:"charset,omitempty"`
	GS1        bool   `json:"gs1,omitempty"`
}

// EncodeResponse describes an encoded symbol. Matrix holds one string
// per row, "X " for dark and "  " for light modules.
type EncodeResponse struct {
	*barcode.Symbol
	Matrix []string `json:"matrix"`
}

// DecodeRequest is the JSON body of POST /decode.
type DecodeRequest struct {
	Format string   `json:"format,omitempty"`
	Matrix []string `json:"matrix"`
	Set    string   `json:"set,omitempty"`
	Unset  string   `json:"unset,omitempty"`
}

// ImageDecodeResponse is returned for multipart image uploads.
type ImageDecodeResponse struct {
	Backend string                `json:"backend"`
	Width   int                   `json:"width"`
	Height  int                   `json:"height"`
	Results []barcode.ImageResult `json:"results"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// NewServer creates a new barcode server instance.
func NewServer(config Config) (*Server, error) {
	backend := config.Backend
	if backend == nil {
		var err error
		backend, err = barcode.NewBackend()
		if err != nil {
			return nil, fmt.Errorf("image backend: %w", err)
		}
	}

	defaults := config.Defaults
	if defaults.Format == barcode.FormatUnknown {
		defaults.Format = barcode.FormatAztec
	}

	s := &Server{
		backend:       backend,
		defaults:      defaults,
		render:        config.Render,
		corsOrigin:    config.CORSOrigin,
		maxUploadMB:   config.MaxUploadMB,
		timeoutSec:    config.TimeoutSec,
		maxBatchItems: config.MaxBatchItems,
	}
	if s.maxUploadMB <= 0 {
		s.maxUploadMB = 10
	}
	if s.maxBatchItems <= 0 {
		s.maxBatchItems = 100
	}

	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	return s, nil
}

// Backend returns the image backend serving multipart decode requests.
func (s *Server) Backend() barcode.Backend { return s.backend }

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.loggingMiddleware(s.healthHandler)))
	mux.HandleFunc("/formats", s.corsMiddleware(s.loggingMiddleware(s.formatsHandler)))
	mux.HandleFunc("/encode", s.wrap(s.encodeHandler))
	mux.HandleFunc("/decode", s.wrap(s.decodeHandler))
	mux.HandleFunc("/batch/encode", s.wrap(s.batchEncodeHandler))
	// The upgrade hijacks the connection, so no timeout applies.
	mux.HandleFunc("/ws", s.corsMiddleware(s.loggingMiddleware(s.rateLimitMiddleware(s.websocketHandler))))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with all routes installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// wrap applies the middleware chain used by the codec endpoints.
func (s *Server) wrap(h http.HandlerFunc) http.HandlerFunc {
	return s.corsMiddleware(s.loggingMiddleware(s.rateLimitMiddleware(s.timeoutMiddleware(h))))
}

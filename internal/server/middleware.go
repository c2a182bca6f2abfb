package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// responseWriter records the status and byte count of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(p)
	rw.written += int64(n)
	return n, err
}

// Hijack lets the WebSocket upgrader take over wrapped connections.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// corsMiddleware sets the CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// loggingMiddleware logs one line per request and records the request
// metrics.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next(rw, r)
		elapsed := time.Since(start)

		endpoint := routeLabel(r)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, http.StatusText(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if rw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"bytes", rw.written,
			"remote_addr", getClientIP(r),
			"duration", elapsed)
	}
}

// routeLabel is the metrics endpoint label: the mux pattern that matched,
// never the raw path.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unknown"
	}
	return r.Pattern
}

// timeoutMiddleware bounds the request context by the configured timeout.
// Codec operations observe the context and fail with DeadlineExceeded.
func (s *Server) timeoutMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.timeoutSec <= 0 {
			next(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// rateLimitMiddleware charges each request, with its declared body size,
// to the client address.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimiter == nil {
			next(w, r)
			return
		}
		if err := s.rateLimiter.CheckRateLimit(getClientIP(r), max(r.ContentLength, 0)); err != nil {
			s.handleRateLimitError(w, err)
			return
		}
		next(w, r)
	}
}

// limitResponse is the body of a 429 response.
type limitResponse struct {
	Error      string  `json:"error"`
	Type       string  `json:"type"`
	Limit      int64   `json:"limit"`
	Used       int64   `json:"used,omitempty"`
	RetryAfter float64 `json:"retry_after,omitempty"`
	Resets     string  `json:"resets,omitempty"`
	Message    string  `json:"message"`
}

// handleRateLimitError answers a rejected request with 429 and headers
// describing the exhausted limit.
func (s *Server) handleRateLimitError(w http.ResponseWriter, err error) {
	var (
		rateErr  *RateLimitError
		quotaErr *QuotaExceededError
		body     limitResponse
	)
	h := w.Header()
	switch {
	case errors.As(err, &rateErr):
		h.Set("X-RateLimit-Type", rateErr.Type)
		h.Set("X-RateLimit-Limit", strconv.Itoa(rateErr.Limit))
		h.Set("Retry-After", strconv.FormatFloat(rateErr.RetryAfter.Seconds(), 'f', 0, 64))
		body = limitResponse{
			Error:      "rate_limit_exceeded",
			Type:       rateErr.Type,
			Limit:      int64(rateErr.Limit),
			RetryAfter: rateErr.RetryAfter.Seconds(),
		}
	case errors.As(err, &quotaErr):
		h.Set("X-Quota-Type", quotaErr.Type)
		h.Set("X-Quota-Limit", strconv.FormatInt(quotaErr.Limit, 10))
		h.Set("X-Quota-Used", strconv.FormatInt(quotaErr.Used, 10))
		h.Set("X-Quota-Resets", quotaErr.Resets.Format(http.TimeFormat))
		body = limitResponse{
			Error:  "quota_exceeded",
			Type:   quotaErr.Type,
			Limit:  quotaErr.Limit,
			Used:   quotaErr.Used,
			Resets: quotaErr.Resets.Format(time.RFC3339),
		}
	default:
		s.writeError(w, err)
		return
	}
	rateLimitHits.WithLabelValues(body.Type).Inc()
	body.Message = err.Error()

	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode rate limit response", "error", err)
	}
}

// getClientIP returns the first X-Forwarded-For entry, then X-Real-IP,
// then the host of RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

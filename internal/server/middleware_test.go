package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_CORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		corsOrigin     string
		method         string
		shouldCallNext bool
	}{
		{name: "GET request", corsOrigin: "*", method: http.MethodGet, shouldCallNext: true},
		{name: "POST with specific origin", corsOrigin: "https://example.com", method: http.MethodPost, shouldCallNext: true},
		{name: "OPTIONS preflight", corsOrigin: "*", method: http.MethodOptions, shouldCallNext: false},
		{name: "empty origin", corsOrigin: "", method: http.MethodGet, shouldCallNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{corsOrigin: tt.corsOrigin}

			nextCalled := false
			handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusAccepted)
			})

			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(tt.method, "/encode", nil))

			assert.Equal(t, tt.corsOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, tt.shouldCallNext, nextCalled)
			if tt.shouldCallNext {
				assert.Equal(t, http.StatusAccepted, w.Code)
			} else {
				assert.Equal(t, http.StatusOK, w.Code)
			}
		})
	}
}

func TestServer_LoggingMiddleware_PassesThrough(t *testing.T) {
	server := &Server{}
	handler := server.loggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestRouteLabel(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/encode/extra/segments?x=1", nil)
	assert.Equal(t, "unknown", routeLabel(r))

	r.Pattern = "/encode"
	assert.Equal(t, "/encode", routeLabel(r))
}

func TestServer_LoggingMiddleware_LabelsByRoute(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	health := httpRequestsTotal.WithLabelValues(http.MethodGet, "/health", http.StatusText(http.StatusOK))
	before := testutil.ToFloat64(health)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health?cache-buster=12345", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, before+1, testutil.ToFloat64(health), 0)

	// A request that bypasses the mux carries no pattern.
	bare := s.loggingMiddleware(func(w http.ResponseWriter, r *http.Request) {})
	unknown := httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", http.StatusText(http.StatusOK))
	before = testutil.ToFloat64(unknown)
	bare(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/some/random/path", nil))
	assert.InDelta(t, before+1, testutil.ToFloat64(unknown), 0)
}

func TestServer_TimeoutMiddleware(t *testing.T) {
	t.Run("sets a deadline", func(t *testing.T) {
		server := &Server{timeoutSec: 5}
		var deadline time.Time
		var ok bool
		handler := server.timeoutMiddleware(func(w http.ResponseWriter, r *http.Request) {
			deadline, ok = r.Context().Deadline()
		})
		handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/encode", nil))

		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
	})

	t.Run("disabled", func(t *testing.T) {
		server := &Server{}
		var ok bool
		handler := server.timeoutMiddleware(func(w http.ResponseWriter, r *http.Request) {
			_, ok = r.Context().Deadline()
		})
		handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/encode", nil))
		assert.False(t, ok)
	})
}

func TestServer_RateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1, 0, 0, 0)
	server := &Server{rateLimiter: rl}

	calls := 0
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	request := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/encode", nil)
		req.RemoteAddr = "192.0.2.7:4711"
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, request().Code)

	w := request()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
}

func TestServer_RateLimitMiddleware_Quota(t *testing.T) {
	rl, _ := newTestLimiter(0, 0, 0, 10)
	server := &Server{rateLimiter: rl}
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/encode", strings.NewReader(`{"text":"more than ten bytes"}`))
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "data", w.Header().Get("X-Quota-Type"))
	assert.Equal(t, "10", w.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-Quota-Used"))
}

func TestServer_RateLimitMiddleware_Disabled(t *testing.T) {
	server := &Server{}
	called := false
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "203.0.113.5:1234", want: "203.0.113.5"},
		{name: "remote addr without port", remote: "203.0.113.5", want: "203.0.113.5"},
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "198.51.100.1"}, remote: "10.0.0.1:1", want: "198.51.100.1"},
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, remote: "10.0.0.1:1", want: "198.51.100.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 198.51.100.9 "}, remote: "10.0.0.1:1", want: "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	assert.Error(t, err)
}

func BenchmarkServer_CORSMiddleware(b *testing.B) {
	server := &Server{corsOrigin: "*"}
	handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for range b.N {
		handler(httptest.NewRecorder(), req)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(Config{
		CORSOrigin:    "*",
		MaxUploadMB:   1,
		TimeoutSec:    10,
		MaxBatchItems: 3,
	})
	require.NoError(t, err)
	return s
}

// doJSON sends body as JSON to the server's mux.
func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// symbolPNG renders text as a PNG file.
func symbolPNG(t *testing.T, text string, format barcode.Format) []byte {
	t.Helper()
	symbol, err := barcode.EncodeText(context.Background(), text, barcode.EncodeOptions{Format: format})
	require.NoError(t, err)
	img, err := barcode.Render(symbol.Matrix, barcode.RenderOptions{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, barcode.WriteImage(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// multipartRequest builds a POST /decode upload with the file in "image".
func multipartRequest(t *testing.T, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "symbol.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/decode", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// stubBackend returns canned results.
type stubBackend struct {
	results []barcode.ImageResult
	err     error
	got     barcode.ImageOptions
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Decode(_ context.Context, _ image.Image, opts barcode.ImageOptions) ([]barcode.ImageResult, error) {
	b.got = opts
	return b.results, b.err
}

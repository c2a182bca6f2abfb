package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/bitutil"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/MeKo-Tech/pocode/internal/version"
	"github.com/disintegration/imaging"
)

const (
	matrixSet   = "X "
	matrixUnset = "  "
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Backend: s.backend.Name(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// formatsHandler lists the supported symbologies.
func (s *Server) formatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	formats := barcode.Formats()
	s.writeJSON(w, http.StatusOK, FormatsResponse{Formats: formats, Count: len(formats)})
}

// encodeHandler encodes text or bytes. With ?output=png the symbol is
// returned as an image instead of JSON.
func (s *Server) encodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	var req EncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: failed to parse JSON request: %w", common.ErrArgument, err))
		return
	}

	symbol, err := s.encode(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if output := r.URL.Query().Get("output"); output != "" && output != "json" {
		s.writeSymbolImage(w, symbol, output)
		return
	}
	s.writeJSON(w, http.StatusOK, newEncodeResponse(symbol))
}

// encode merges req over the server defaults and runs the encoder.
func (s *Server) encode(ctx context.Context, req EncodeRequest) (*barcode.Symbol, error) {
	opts, err := s.encodeOptions(req)
	if err != nil {
		recordEncode(opts.Format, nil, err)
		return nil, err
	}

	var symbol *barcode.Symbol
	if req.DataBase64 != "" {
		data, derr := base64.StdEncoding.DecodeString(req.DataBase64)
		if derr != nil {
			err = fmt.Errorf("%w: data_base64: %w", common.ErrArgument, derr)
			recordEncode(opts.Format, nil, err)
			return nil, err
		}
		symbol, err = barcode.Encode(ctx, data, opts)
	} else {
		symbol, err = barcode.EncodeText(ctx, req.Text, opts)
	}
	recordEncode(opts.Format, symbol, err)
	return symbol, err
}

func (s *Server) encodeOptions(req EncodeRequest) (barcode.EncodeOptions, error) {
	opts := s.defaults
	if req.Format != "" {
		f, err := barcode.ParseFormat(req.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if req.ECC != 0 {
		opts.ECCPercent = req.ECC
	}
	if req.Layers != 0 {
		opts.Layers = req.Layers
	}
	if req.Shape != "" {
		opts.Shape = req.Shape
	}
	if req.Version != 0 {
		opts.Version = req.Version
	}
	if req.Charset != "" {
		opts.Charset = req.Charset
	}
	if req.GS1 {
		opts.GS1 = true
	}
	return opts, nil
}

func newEncodeResponse(symbol *barcode.Symbol) EncodeResponse {
	return EncodeResponse{Symbol: symbol, Matrix: symbol.Matrix.Rows(matrixSet, matrixUnset)}
}

func (s *Server) writeSymbolImage(w http.ResponseWriter, symbol *barcode.Symbol, output string) {
	format, err := imaging.FormatFromExtension(output)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: unsupported output %q", common.ErrArgument, output))
		return
	}
	img, err := barcode.Render(symbol.Matrix, s.render)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/"+strings.ToLower(format.String()))
	if err := barcode.WriteImage(w, img, format); err != nil {
		slog.Error("Failed to write symbol image", "error", err)
	}
}

// decodeHandler decodes a JSON text matrix or, for multipart requests,
// an uploaded image.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		s.decodeImageHandler(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: failed to parse JSON request: %w", common.ErrArgument, err))
		return
	}

	result, err := s.decodeMatrix(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) decodeMatrix(ctx context.Context, req DecodeRequest) (*barcode.DecodeResult, error) {
	format, err := barcode.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	matrix, err := parseMatrix(req)
	if err != nil {
		recordDecode(format, nil, err)
		return nil, err
	}
	result, err := barcode.Decode(ctx, matrix, format)
	recordDecode(format, result, err)
	return result, err
}

func parseMatrix(req DecodeRequest) (*bitutil.BitMatrix, error) {
	if len(req.Matrix) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", common.ErrArgument)
	}
	set, unset := req.Set, req.Unset
	if set == "" {
		set = matrixSet
	}
	if unset == "" {
		unset = matrixUnset
	}
	return bitutil.ParseBitMatrix(strings.Join(req.Matrix, "\n"), set, unset)
}

func (s *Server) maxUploadBytes() int64 { return s.maxUploadMB * 1024 * 1024 }

// statusForError maps codec errors onto HTTP status codes.
func statusForError(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	case errors.Is(err, common.ErrArgument):
		return http.StatusBadRequest, "invalid_request"
	case common.IsDecodeFailure(err):
		return http.StatusUnprocessableEntity, "decode_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError writes a JSON error response with the status mapped from err.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := statusForError(err)
	s.writeJSON(w, status, ErrorResponse{Success: false, Error: err.Error(), ErrorType: kind})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/common"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// Origins are checked by the CORS configuration, not the upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketRequest is one request frame. Type selects which of Encode,
// Decode or Image is used.
type WebSocketRequest struct {
	Type      string         `json:"type"` // "encode", "decode" or "image"
	RequestID string         `json:"request_id,omitempty"`
	Encode    *EncodeRequest `json:"encode,omitempty"`
	Decode    *DecodeRequest `json:"decode,omitempty"`
	// Image is a base64 encoded image file for "image" frames.
	Image     []byte `json:"image,omitempty"`
	Format    string `json:"format,omitempty"`
	TryHarder bool   `json:"try_harder,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketResponse is one response frame.
type WebSocketResponse struct {
	Type      string `json:"type"`
	Status    string `json:"status"` // "completed" or "error"
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// websocketHandler upgrades the connection and serves request frames
// until the client disconnects.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage answers a single request frame.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", fmt.Errorf("%w: failed to parse request: %w", common.ErrArgument, err))
		return
	}
	if req.RequestID == "" {
		req.RequestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	var (
		result any
		err    error
	)
	switch req.Type {
	case "encode":
		result, err = s.processWebSocketEncode(ctx, req)
	case "decode":
		result, err = s.processWebSocketDecode(ctx, req)
	case "image":
		result, err = s.processWebSocketImage(ctx, req)
	default:
		err = fmt.Errorf("%w: unsupported request type %q", common.ErrArgument, req.Type)
	}
	if err != nil {
		s.sendWebSocketError(conn, req.RequestID, err)
		return
	}
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      req.Type + "_response",
		Status:    "completed",
		Result:    result,
		RequestID: req.RequestID,
	})
}

func (s *Server) processWebSocketEncode(ctx context.Context, req WebSocketRequest) (any, error) {
	if req.Encode == nil {
		return nil, fmt.Errorf("%w: missing encode payload", common.ErrArgument)
	}
	symbol, err := s.encode(ctx, *req.Encode)
	if err != nil {
		return nil, err
	}
	return newEncodeResponse(symbol), nil
}

func (s *Server) processWebSocketDecode(ctx context.Context, req WebSocketRequest) (any, error) {
	if req.Decode == nil {
		return nil, fmt.Errorf("%w: missing decode payload", common.ErrArgument)
	}
	return s.decodeMatrix(ctx, *req.Decode)
}

func (s *Server) processWebSocketImage(ctx context.Context, req WebSocketRequest) (any, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: no image data provided", common.ErrArgument)
	}
	if int64(len(req.Image)) > s.maxUploadBytes() {
		return nil, fmt.Errorf("%w: image exceeds %d MB", common.ErrArgument, s.maxUploadMB)
	}
	img, err := barcode.ReadImage(bytes.NewReader(req.Image))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrArgument, err)
	}
	opts := barcode.ImageOptions{TryHarder: req.TryHarder}
	format, err := barcode.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	if format != barcode.FormatUnknown {
		opts.Formats = []barcode.Format{format}
	}
	results, err := s.backend.Decode(ctx, img, opts)
	recordImageDecode(format, results, err)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return ImageDecodeResponse{Backend: s.backend.Name(), Width: b.Dx(), Height: b.Dy(), Results: results}, nil
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error frame classified like HTTP errors.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID string, err error) {
	_, kind := statusForError(err)
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "error",
		Status:    "error",
		Error:     err.Error(),
		ErrorType: kind,
		RequestID: requestID,
	})
}

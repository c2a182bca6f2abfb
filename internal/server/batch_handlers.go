package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/pocode/internal/common"
	"golang.org/x/sync/errgroup"
)

// BatchEncodeRequest is the body of POST /batch/encode.
type BatchEncodeRequest struct {
	Items []BatchEncodeItem `json:"items"`
}

// BatchEncodeItem is one named encode request.
type BatchEncodeItem struct {
	Name string `json:"name"`
	EncodeRequest
}

// BatchEncodeResponse represents the response for batch encoding.
type BatchEncodeResponse struct {
	Success bool                   `json:"success"`
	Results []BatchEncodeResult    `json:"results"`
	Summary BatchProcessingSummary `json:"summary"`
}

// BatchEncodeResult represents a single result in batch processing.
type BatchEncodeResult struct {
	Name     string          `json:"name"`
	Success  bool            `json:"success"`
	Result   *EncodeResponse `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Duration float64         `json:"duration_seconds"`
}

// BatchProcessingSummary provides summary statistics for batch processing.
type BatchProcessingSummary struct {
	TotalItems    int     `json:"total_items"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	TotalDuration float64 `json:"total_duration_seconds"`
	AvgItemTime   float64 `json:"avg_item_time_seconds"`
}

// batchEncodeHandler encodes every item of a batch. Item failures are
// reported per item; the request itself only fails when malformed.
func (s *Server) batchEncodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	var req BatchEncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: failed to parse JSON request: %w", common.ErrArgument, err))
		return
	}
	if len(req.Items) == 0 {
		s.writeError(w, fmt.Errorf("%w: no items provided in batch request", common.ErrArgument))
		return
	}
	if len(req.Items) > s.maxBatchItems {
		s.writeError(w, fmt.Errorf("%w: batch size too large (maximum %d items)", common.ErrArgument, s.maxBatchItems))
		return
	}

	start := time.Now()
	results, summary, err := s.processBatchRequest(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summary.TotalDuration = time.Since(start).Seconds()
	summary.AvgItemTime = summary.TotalDuration / float64(summary.TotalItems)

	s.writeJSON(w, http.StatusOK, BatchEncodeResponse{
		Success: summary.Failed == 0,
		Results: results,
		Summary: summary,
	})
}

// processBatchRequest encodes the items concurrently, keeping their order.
// It only returns an error when ctx ends.
func (s *Server) processBatchRequest(ctx context.Context, req BatchEncodeRequest) ([]BatchEncodeResult, BatchProcessingSummary, error) {
	results := make([]BatchEncodeResult, len(req.Items))
	summary := BatchProcessingSummary{TotalItems: len(req.Items)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, item := range req.Items {
		g.Go(func() error {
			results[i] = s.processBatchItem(gctx, item)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}

	for _, res := range results {
		if res.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return results, summary, nil
}

func (s *Server) processBatchItem(ctx context.Context, item BatchEncodeItem) BatchEncodeResult {
	result := BatchEncodeResult{Name: item.Name}
	start := time.Now()
	symbol, err := s.encode(ctx, item.EncodeRequest)
	result.Duration = time.Since(start).Seconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	resp := newEncodeResponse(symbol)
	result.Success = true
	result.Result = &resp
	return result
}

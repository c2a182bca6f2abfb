// Package batch encodes or decodes many files in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoFiles reports that discovery found nothing to process.
var ErrNoFiles = errors.New("no input files found")

// Process discovers files under paths and runs them through the
// configured mode.
func Process(ctx context.Context, paths []string, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	files, err := discoverFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	p, err := newProcessor(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := processParallel(ctx, p, files, cfg.Workers, cfg.ContinueOnError)
	res := &Result{
		Mode:        cfg.Mode,
		Files:       files,
		Results:     results,
		Duration:    time.Since(start),
		WorkerCount: cfg.Workers,
	}
	if err != nil {
		return res, fmt.Errorf("batch processing failed: %w", err)
	}
	return res, nil
}

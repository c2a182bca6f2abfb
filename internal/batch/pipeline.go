package batch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// processParallel runs files through p on at most workers goroutines.
// Results keep the order of files. Without continueOnError the first
// failure cancels the remaining work and is returned; files that never
// ran are left nil in the slice.
func processParallel(ctx context.Context, p *processor, files []string, workers int,
	continueOnError bool,
) ([]*FileResult, error) {
	results := make([]*FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.processFile(gctx, path)
			results[i] = res
			if err != nil {
				slog.Debug("batch item failed", "file", path, "error", err)
				if !continueOnError {
					return err
				}
				return nil
			}
			slog.Debug("batch item done", "file", path, "duration", res.Duration)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

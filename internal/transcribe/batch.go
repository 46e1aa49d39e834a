package transcribe

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome for one file of a batch.
type Result struct {
	Path string
	Text string
	Err  error
}

// Batch transcribes paths with up to workers concurrent requests. Results
// keep the order of paths. A failed file is recorded in its Result and does
// not stop the others; only context cancellation fails the batch.
func Batch(ctx context.Context, t Transcriber, paths []string, workers int, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i].Path = path
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			text, err := t.Transcribe(gctx, path)
			if err != nil {
				logger.Warn("transcription failed",
					slog.String("file", path),
					slog.String("error", err.Error()),
				)
				results[i].Err = err
				return nil
			}

			results[i].Text = singleLine(text)
			logger.Debug("transcribed", slog.String("file", path), slog.Int("chars", len(results[i].Text)))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// singleLine collapses whitespace runs, line breaks included, so one
// transcript always fits one metadata line.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"github.com/laielli/vlmlabel/internal/infra/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchSummary aggregates video-level outcomes. Partial counts videos
// where some but not all variants succeeded; those do not fail the batch.
type BatchSummary struct {
	Total        int
	Succeeded    int
	Partial      int
	Failed       int
	Skipped      int
	FailedVideos []string
	Elapsed      time.Duration
}

// OK reports whether the batch as a whole succeeded: no video failed
// entirely.
func (s *BatchSummary) OK() bool {
	return s.Failed == 0
}

// ProcessBatch runs every config through the pipeline. Videos share no
// mutable state, so they run concurrently up to the given bound; a failure
// in one video never blocks the others.
func (c *Coordinator) ProcessBatch(ctx context.Context, configs []entity.VideoConfig, opts Options, concurrency int) *BatchSummary {
	if concurrency < 1 {
		concurrency = 1
	}

	start := time.Now()
	summary := &BatchSummary{Total: len(configs)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, cfg := range configs {
		cfg := cfg
		g.Go(func() error {
			result, err := c.ProcessVideo(ctx, cfg, opts)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				c.logger.Error("video processing failed",
					zap.String("video_id", cfg.ID),
					zap.Error(err),
				)
				summary.Failed++
				summary.FailedVideos = append(summary.FailedVideos, cfg.ID)
				metrics.VideosProcessedTotal.WithLabelValues("failed").Inc()
			case result.Skipped:
				summary.Skipped++
				metrics.VideosProcessedTotal.WithLabelValues("skipped").Inc()
			case result.AllFailed():
				summary.Failed++
				summary.FailedVideos = append(summary.FailedVideos, cfg.ID)
				metrics.VideosProcessedTotal.WithLabelValues("failed").Inc()
			default:
				summary.Succeeded++
				if result.FailureCount() > 0 {
					summary.Partial++
				}
				metrics.VideosProcessedTotal.WithLabelValues("completed").Inc()
			}
			return nil
		})
	}
	g.Wait()

	summary.Elapsed = time.Since(start)
	return summary
}

package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/laielli/vlmlabel/internal/domain/entity"
	"github.com/laielli/vlmlabel/internal/domain/port"
	"github.com/laielli/vlmlabel/internal/infra/metrics"
	"github.com/laielli/vlmlabel/internal/infra/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Kind restricts a run to full-video variants, clip variants, or both.
type Kind string

const (
	KindAll   Kind = "all"
	KindFull  Kind = "full"
	KindClips Kind = "clips"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAll, KindFull, KindClips:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invalid processing type %q (want full, clips or all)", s)
}

// Options control one processing run.
type Options struct {
	Force        bool
	Kind         Kind
	ValidateOnly bool
}

type CoordinatorConfig struct {
	TempDir string
	Workers int
}

// Coordinator drives the pipeline for one video config: transcode the
// source to intra-frame-only once, fan out over all requested variants and
// clips on a bounded worker pool, and persist results. A single variant
// failure never aborts its siblings.
type Coordinator struct {
	prober     port.Prober
	transcoder port.Transcoder
	encoder    port.VariantEncoder
	clipper    port.ClipExtractor
	sampler    port.FrameSampler
	timestamps port.TimestampSource
	store      *store.Layout
	logger     *zap.Logger
	tempDir    string
	workers    int
}

func NewCoordinator(
	prober port.Prober,
	transcoder port.Transcoder,
	encoder port.VariantEncoder,
	clipper port.ClipExtractor,
	sampler port.FrameSampler,
	timestamps port.TimestampSource,
	layout *store.Layout,
	logger *zap.Logger,
	cfg CoordinatorConfig,
) *Coordinator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		prober:     prober,
		transcoder: transcoder,
		encoder:    encoder,
		clipper:    clipper,
		sampler:    sampler,
		timestamps: timestamps,
		store:      layout,
		logger:     logger,
		tempDir:    cfg.TempDir,
		workers:    workers,
	}
}

// ProcessVideo runs the pipeline for one video. A returned error means the
// video failed as a whole (bad source, failed transcode) before variant
// fan-out; per-variant failures are recorded in the result instead.
func (c *Coordinator) ProcessVideo(ctx context.Context, cfg entity.VideoConfig, opts Options) (*entity.VideoResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "Coordinator.ProcessVideo")
	defer span.End()
	span.SetAttributes(
		attribute.String("video.id", cfg.ID),
		attribute.String("video.source", cfg.SourcePath),
	)

	log := c.logger.With(zap.String("video_id", cfg.ID))

	if !opts.Force && c.store.ShouldSkip(cfg) {
		log.Info("artifacts up to date, skipping")
		result := entity.NewVideoResult(cfg.ID)
		result.Skipped = true
		return result, nil
	}

	srcInfo, err := c.prober.Probe(ctx, cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("probe source: %w", err)
	}
	log.Info("source video",
		zap.Float64("duration_secs", srcInfo.Duration),
		zap.Float64("fps", srcInfo.FPS),
		zap.Int("width", srcInfo.Width),
		zap.Int("height", srcInfo.Height),
		zap.String("codec", srcInfo.Codec),
	)

	if opts.ValidateOnly {
		log.Info("validate-only mode, skipping processing")
		return entity.NewVideoResult(cfg.ID), nil
	}

	runID := uuid.New().String()
	log = log.With(zap.String("run_id", runID))

	workDir := filepath.Join(c.tempDir, runID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Everything downstream derives from the intra-frame-only transcode,
	// never from the original file, so all variants share one re-seekable
	// frame timeline.
	tcStart := time.Now()
	tcCtx, tcSpan := tracer.Start(ctx, "intra_frame_transcode")
	iframePath := filepath.Join(workDir, cfg.ID+"__iframe_only.mp4")
	err = c.transcoder.Transcode(tcCtx, cfg.SourcePath, iframePath)
	tcSpan.End()
	if err != nil {
		return nil, fmt.Errorf("intra-frame transcode: %w", err)
	}
	metrics.StageDuration.WithLabelValues("transcode").Observe(time.Since(tcStart).Seconds())

	result := entity.NewVideoResult(cfg.ID)
	var mu sync.Mutex
	record := func(res entity.ProcessingResult) {
		mu.Lock()
		result.Results[res.Key.String()] = res
		mu.Unlock()

		status := "completed"
		if !res.Success {
			status = "failed"
		}
		metrics.VariantsProcessedTotal.WithLabelValues(status).Inc()
	}

	// One dispatch per VariantKey: full variants fan out individually,
	// each clip runs as one unit because its fps renditions share the
	// extracted clip intermediate.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	if opts.Kind != KindClips {
		for _, fps := range cfg.FPSVariants {
			fps := fps
			g.Go(func() error {
				record(c.processVariant(gctx, cfg.ID, iframePath, entity.FullVariant(fps), log))
				return nil
			})
		}
	}
	if opts.Kind != KindFull {
		for _, clip := range cfg.Clips {
			clip := clip
			g.Go(func() error {
				c.processClip(gctx, cfg.ID, iframePath, workDir, clip, record, log)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := c.persistProcessingInfo(ctx, cfg, srcInfo, runID, result); err != nil {
		log.Warn("failed to persist processing info", zap.Error(err))
	}

	log.Info("video processing finished",
		zap.Int("succeeded", result.SuccessCount()),
		zap.Int("failed", result.FailureCount()),
	)
	return result, nil
}

// processVariant encodes one rendition, samples its frames and recovers
// their timestamps. Failures remove any partial artifacts for the key so
// a later run cannot mistake them for valid output.
func (c *Coordinator) processVariant(ctx context.Context, videoID, sourcePath string, key entity.VariantKey, log *zap.Logger) entity.ProcessingResult {
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	log = log.With(zap.String("variant", key.String()))

	encStart := time.Now()
	variantPath := c.store.VariantVideoPath(videoID, key)
	if err := c.encoder.Encode(ctx, sourcePath, variantPath, key.FPS); err != nil {
		log.Error("variant encode failed", zap.Error(err))
		c.cleanupPartial(videoID, key, log)
		return entity.ProcessingResult{Key: key, Error: err.Error()}
	}
	metrics.StageDuration.WithLabelValues("encode").Observe(time.Since(encStart).Seconds())

	sampleStart := time.Now()
	framesDir := c.store.FramesDir(videoID, key)
	frameCount, err := c.sampler.Sample(ctx, variantPath, framesDir, key.FPS)
	if err != nil {
		log.Error("frame sampling failed", zap.Error(err))
		c.cleanupPartial(videoID, key, log)
		return entity.ProcessingResult{Key: key, Error: err.Error()}
	}
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(sampleStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(frameCount))

	hasTimestamps := c.recoverTimestamps(ctx, videoID, key, variantPath, frameCount, log)

	log.Info("variant completed",
		zap.Int("frame_count", frameCount),
		zap.Bool("has_timestamps", hasTimestamps),
	)
	return entity.ProcessingResult{
		Key:           key,
		Success:       true,
		FrameCount:    frameCount,
		HasTimestamps: hasTimestamps,
	}
}

func (c *Coordinator) processClip(
	ctx context.Context,
	videoID, iframePath, workDir string,
	clip entity.ClipConfig,
	record func(entity.ProcessingResult),
	log *zap.Logger,
) {
	log = log.With(zap.String("clip", clip.Name))

	clipStart := time.Now()
	tempClip := filepath.Join(workDir, "clip_"+clip.Name+".mp4")
	if err := c.clipper.Extract(ctx, iframePath, tempClip, clip.Start, clip.End); err != nil {
		log.Error("clip extraction failed", zap.Error(err))
		for _, fps := range clip.FPS {
			record(entity.ProcessingResult{
				Key:   entity.ClipVariant(clip.Name, fps),
				Error: fmt.Sprintf("extract clip: %v", err),
			})
		}
		return
	}
	metrics.StageDuration.WithLabelValues("clip_extract").Observe(time.Since(clipStart).Seconds())

	for _, fps := range clip.FPS {
		record(c.processVariant(ctx, videoID, tempClip, entity.ClipVariant(clip.Name, fps), log))
	}
}

// recoverTimestamps pairs the first frameCount recovered timestamps with
// the sampled frames. Sampling and the encoded frame sequence are driven
// by the same deterministic re-encoding, so frame order and timestamp
// order agree. A short or inverted recovery degrades the variant to the
// fixed-interval fallback rather than failing it.
func (c *Coordinator) recoverTimestamps(ctx context.Context, videoID string, key entity.VariantKey, variantPath string, frameCount int, log *zap.Logger) bool {
	timestamps, err := c.timestamps.Timestamps(ctx, variantPath)
	if err != nil {
		log.Warn("timestamp recovery failed, frame indices will be used", zap.Error(err))
		metrics.VariantsWithoutTimestamps.Inc()
		return false
	}
	if len(timestamps) < frameCount {
		log.Warn("recovered fewer timestamps than frames, frame indices will be used",
			zap.Int("timestamps", len(timestamps)),
			zap.Int("frames", frameCount),
		)
		metrics.VariantsWithoutTimestamps.Inc()
		return false
	}

	records := make([]entity.FrameRecord, frameCount)
	for i := 0; i < frameCount; i++ {
		if i > 0 && timestamps[i] < timestamps[i-1] {
			log.Warn("timestamp inversion in recovered sequence, frame indices will be used",
				zap.Int("frame_index", i),
				zap.Float64("timestamp", timestamps[i]),
				zap.Float64("previous", timestamps[i-1]),
			)
			metrics.VariantsWithoutTimestamps.Inc()
			return false
		}
		records[i] = entity.FrameRecord{
			FrameIndex:  i,
			Timestamp:   timestamps[i],
			Filename:    entity.FrameFilename(i),
			FrameNumber: i + 1,
		}
	}

	if err := c.store.WriteFrameTimestamps(videoID, key, records); err != nil {
		log.Warn("failed to write frame timestamps, frame indices will be used", zap.Error(err))
		metrics.VariantsWithoutTimestamps.Inc()
		return false
	}
	return true
}

func (c *Coordinator) cleanupPartial(videoID string, key entity.VariantKey, log *zap.Logger) {
	if err := c.store.RemoveVariant(videoID, key); err != nil {
		log.Warn("failed to clean up partial variant artifacts", zap.Error(err))
	}
}

func (c *Coordinator) persistProcessingInfo(ctx context.Context, cfg entity.VideoConfig, srcInfo entity.MediaInfo, runID string, result *entity.VideoResult) error {
	info := &store.ProcessingInfo{
		VideoID:           cfg.ID,
		SourceVideo:       cfg.SourcePath,
		SourceFPS:         srcInfo.FPS,
		CanonicalVariant:  cfg.CanonicalVariant,
		RunID:             runID,
		ProcessedAt:       time.Now().UTC(),
		ProcessedVariants: make(map[string]store.VariantInfo),
		Results:           make(map[string]store.ResultInfo),
	}

	for keyStr, res := range result.Results {
		info.Results[keyStr] = store.ResultInfo{
			Success:       res.Success,
			FrameCount:    res.FrameCount,
			HasTimestamps: res.HasTimestamps,
			Error:         res.Error,
		}
		if !res.Success {
			continue
		}
		path := c.store.VariantVideoPath(cfg.ID, res.Key)
		if vi, err := c.prober.Probe(ctx, path); err == nil {
			info.ProcessedVariants[keyStr] = store.VariantInfo{
				FPS:      vi.FPS,
				Duration: vi.Duration,
				Path:     path,
			}
		}
	}
	return c.store.WriteProcessingInfo(info)
}

package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/laielli/vlmlabel/internal/domain/port"
	"go.uber.org/zap"
)

// Transcoder produces the intra-frame-only representation every variant
// and clip is derived from: keyframe interval of exactly one frame, so any
// cut or resample of the output lands on an independently decodable frame.
type Transcoder struct {
	prober port.Prober
	preset string
	crf    int
	logger *zap.Logger
}

func NewTranscoder(prober port.Prober, preset string, crf int, logger *zap.Logger) *Transcoder {
	return &Transcoder{prober: prober, preset: preset, crf: crf, logger: logger}
}

func (t *Transcoder) Transcode(ctx context.Context, sourcePath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	err := run(ctx,
		"-y", "-i", sourcePath,
		"-g", "1",
		"-keyint_min", "1",
		"-sc_threshold", "0",
		"-x264opts", "keyint=1:min-keyint=1:no-scenecut",
		"-c:v", "libx264",
		"-preset", t.preset,
		"-crf", strconv.Itoa(t.crf),
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("intra-frame transcode: %w", err)
	}

	return t.checkDurationDrift(ctx, sourcePath, outputPath)
}

// checkDurationDrift compares source and output durations. The transcoded
// duration is what downstream stages validate against, so drift here is
// logged but not fatal.
func (t *Transcoder) checkDurationDrift(ctx context.Context, sourcePath, outputPath string) error {
	srcInfo, err := t.prober.Probe(ctx, sourcePath)
	if err != nil {
		t.logger.Warn("source probe failed after transcode, skipping duration check",
			zap.String("source", sourcePath),
			zap.Error(err),
		)
		return nil
	}
	outInfo, err := t.prober.Probe(ctx, outputPath)
	if err != nil {
		return fmt.Errorf("probe transcoded output: %w", err)
	}

	drift := math.Abs(outInfo.Duration - srcInfo.Duration)
	if drift > durationTolerance {
		t.logger.Warn("intra-frame transcode changed duration",
			zap.String("source", sourcePath),
			zap.Float64("source_duration", srcInfo.Duration),
			zap.Float64("output_duration", outInfo.Duration),
			zap.Float64("drift_secs", drift),
		)
	}
	return nil
}

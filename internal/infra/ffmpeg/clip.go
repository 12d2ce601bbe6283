package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"github.com/laielli/vlmlabel/internal/domain/port"
	"github.com/laielli/vlmlabel/internal/timecode"
	"go.uber.org/zap"
)

// ClipCutter extracts a time-bounded sub-range from an intra-frame-only
// video. The output container's base timestamp is normalized to zero;
// some extraction paths otherwise leave negative timestamps that confuse
// players and downstream timestamp recovery.
type ClipCutter struct {
	prober port.Prober
	preset string
	logger *zap.Logger
}

func NewClipCutter(prober port.Prober, preset string, logger *zap.Logger) *ClipCutter {
	return &ClipCutter{prober: prober, preset: preset, logger: logger}
}

func (c *ClipCutter) Extract(ctx context.Context, sourcePath, outputPath, start, end string) error {
	startSec, err := timecode.Parse(start)
	if err != nil {
		return entity.Validationf("clip start %q: %v", start, err)
	}
	endSec, err := timecode.Parse(end)
	if err != nil {
		return entity.Validationf("clip end %q: %v", end, err)
	}
	if endSec <= startSec {
		return entity.Validationf("clip end %q is not after start %q", end, start)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	err = run(ctx,
		"-y", "-i", sourcePath,
		"-ss", start,
		"-to", end,
		"-c:v", "libx264",
		"-preset", c.preset,
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"-avoid_negative_ts", "make_zero",
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("extract clip %s-%s: %w", start, end, err)
	}

	outInfo, err := c.prober.Probe(ctx, outputPath)
	if err != nil {
		return fmt.Errorf("probe clip output: %w", err)
	}
	expected := endSec - startSec
	drift := math.Abs(outInfo.Duration - expected)
	if drift > clipDurationTolerance {
		c.logger.Warn("clip duration drifted from requested range",
			zap.String("output", outputPath),
			zap.Float64("expected_duration", expected),
			zap.Float64("actual_duration", outInfo.Duration),
			zap.Float64("drift_secs", drift),
		)
	}
	return nil
}

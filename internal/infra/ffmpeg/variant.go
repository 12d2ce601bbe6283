package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/laielli/vlmlabel/internal/domain/port"
	"go.uber.org/zap"
)

// VariantEncoder derives a frame-rate variant from an intra-frame-only
// video. The fps filter duplicates or drops frames as needed, which keeps
// total playback duration constant; that is what makes frame-timestamp
// maps comparable across variants of the same video.
type VariantEncoder struct {
	prober port.Prober
	preset string
	logger *zap.Logger
}

func NewVariantEncoder(prober port.Prober, preset string, logger *zap.Logger) *VariantEncoder {
	return &VariantEncoder{prober: prober, preset: preset, logger: logger}
}

func (e *VariantEncoder) Encode(ctx context.Context, sourcePath, outputPath string, targetFPS int) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	srcInfo, err := e.prober.Probe(ctx, sourcePath)
	if err != nil {
		return err
	}

	if math.Abs(srcInfo.FPS-float64(targetFPS)) < fpsEpsilon {
		e.logger.Debug("target rate matches source, copying",
			zap.String("source", sourcePath),
			zap.Int("target_fps", targetFPS),
		)
		return copyFile(sourcePath, outputPath)
	}

	err = run(ctx,
		"-y", "-i", sourcePath,
		"-vf", fmt.Sprintf("fps=%d", targetFPS),
		"-c:v", "libx264",
		"-preset", e.preset,
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("encode %d fps variant: %w", targetFPS, err)
	}

	outInfo, err := e.prober.Probe(ctx, outputPath)
	if err != nil {
		return fmt.Errorf("probe variant output: %w", err)
	}
	drift := math.Abs(outInfo.Duration - srcInfo.Duration)
	if drift > durationTolerance {
		e.logger.Warn("variant duration drifted from source",
			zap.String("output", outputPath),
			zap.Int("target_fps", targetFPS),
			zap.Float64("source_duration", srcInfo.Duration),
			zap.Float64("output_duration", outInfo.Duration),
			zap.Float64("drift_secs", drift),
		)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

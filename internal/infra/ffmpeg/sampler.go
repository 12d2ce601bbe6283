package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/laielli/vlmlabel/internal/domain/port"
	"go.uber.org/zap"
)

// Sampler extracts still frames from a variant video. When the target rate
// is at or above the video's own rate every frame is taken; below it,
// frames are chosen by minimum elapsed time since the last selection.
// Naive modulo skipping drifts whenever the source rate is not an exact
// multiple of the target and can emit visually duplicate frames.
type Sampler struct {
	prober port.Prober
	logger *zap.Logger
}

func NewSampler(prober port.Prober, logger *zap.Logger) *Sampler {
	return &Sampler{prober: prober, logger: logger}
}

func (s *Sampler) Sample(ctx context.Context, videoPath, outputDir string, targetFPS int) (int, error) {
	if err := prepareFramesDir(outputDir); err != nil {
		return 0, err
	}

	info, err := s.prober.Probe(ctx, videoPath)
	if err != nil {
		return 0, err
	}

	pattern := filepath.Join(outputDir, "frame_%04d.jpg")

	var args []string
	if float64(targetFPS) >= info.FPS {
		args = []string{
			"-i", videoPath,
			"-start_number", "0",
			"-y",
			pattern,
		}
	} else {
		args = []string{
			"-i", videoPath,
			"-vf", timeSelectFilter(targetFPS),
			"-vsync", "0",
			"-start_number", "0",
			"-y",
			pattern,
		}
	}

	if err := run(ctx, args...); err != nil {
		return 0, fmt.Errorf("extract frames: %w", err)
	}

	frames, err := filepath.Glob(filepath.Join(outputDir, "frame_*.jpg"))
	if err != nil {
		return 0, fmt.Errorf("glob frames: %w", err)
	}
	count := len(frames)
	if count == 0 {
		return 0, fmt.Errorf("no frames extracted from %s", videoPath)
	}

	expected := expectedFrameCount(info.Duration, targetFPS)
	if delta := count - expected; delta > countTolerance(expected) || -delta > countTolerance(expected) {
		// A large deviation suggests duplicated or dropped frames; the
		// artifact is still persisted, acceptance is the caller's call.
		s.logger.Warn("frame count outside tolerance",
			zap.String("video", videoPath),
			zap.Int("target_fps", targetFPS),
			zap.Int("expected_frames", expected),
			zap.Int("actual_frames", count),
		)
	}
	return count, nil
}

// prepareFramesDir rebuilds the frames directory from scratch. Frames left
// by a prior run (a forced reprocess, or a config change that lowered the
// rate) would otherwise survive the extraction and inflate the glob count.
func prepareFramesDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear frames dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create frames dir: %w", err)
	}
	return nil
}

// timeSelectFilter keeps the first frame and then any frame at least
// 1/targetFPS seconds after the previously selected one.
func timeSelectFilter(targetFPS int) string {
	interval := 1.0 / float64(targetFPS)
	return fmt.Sprintf(`select='eq(n\,0)+gte(t-prev_selected_t\,%.6f)'`, interval)
}

func expectedFrameCount(duration float64, targetFPS int) int {
	return int(duration * float64(targetFPS))
}

// countTolerance is 2% of the expected count with a floor of one frame.
func countTolerance(expected int) int {
	tol := expected * 2 / 100
	if tol < 1 {
		return 1
	}
	return tol
}

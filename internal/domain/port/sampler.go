package port

import "context"

// FrameSampler extracts still images from a variant video at the target
// rate, one per target interval without duplicates, and returns the number
// of frames written.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath, outputDir string, targetFPS int) (int, error)
}

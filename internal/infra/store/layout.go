// Package store owns the on-disk artifact layout consumed by the
// annotation UI, the frame-timestamp maps, and the per-video processing
// record used for idempotent re-runs.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/laielli/vlmlabel/internal/domain/entity"
)

// Layout maps (video id, variant key) pairs to paths under the output
// root. The string form of VariantKey appears only here and in the files
// themselves; everything above works with the structured key.
type Layout struct {
	Root string
}

func NewLayout(root string) *Layout {
	return &Layout{Root: root}
}

func (l *Layout) VideoDir(videoID string) string {
	return filepath.Join(l.Root, videoID)
}

func (l *Layout) VariantVideoPath(videoID string, key entity.VariantKey) string {
	return filepath.Join(l.VideoDir(videoID), fmt.Sprintf("%s__%s.mp4", videoID, key))
}

func (l *Layout) FramesDir(videoID string, key entity.VariantKey) string {
	return filepath.Join(l.VideoDir(videoID), "frames", key.String())
}

func (l *Layout) TimestampPath(videoID string, key entity.VariantKey) string {
	return filepath.Join(l.FramesDir(videoID, key), "frame_timestamps.json")
}

func (l *Layout) ProcessingInfoPath(videoID string) string {
	return filepath.Join(l.VideoDir(videoID), videoID+"_processing_info.yaml")
}

// RemoveVariant deletes a variant's video file and frames directory.
// Called when a variant fails partway so no valid-looking partial
// artifacts survive.
func (l *Layout) RemoveVariant(videoID string, key entity.VariantKey) error {
	if err := os.Remove(l.VariantVideoPath(videoID, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove variant video: %w", err)
	}
	if err := os.RemoveAll(l.FramesDir(videoID, key)); err != nil {
		return fmt.Errorf("remove frames dir: %w", err)
	}
	return nil
}

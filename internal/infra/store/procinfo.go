package store

import (
	"fmt"
	"os"
	"time"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"gopkg.in/yaml.v3"
)

// VariantInfo records the measured properties of one produced variant.
type VariantInfo struct {
	FPS      float64 `yaml:"fps"`
	Duration float64 `yaml:"duration"`
	Path     string  `yaml:"path"`
}

// ResultInfo mirrors entity.ProcessingResult in the processing record.
type ResultInfo struct {
	Success       bool   `yaml:"success"`
	FrameCount    int    `yaml:"frame_count"`
	HasTimestamps bool   `yaml:"has_timestamps"`
	Error         string `yaml:"error,omitempty"`
}

// ProcessingInfo is the per-video processing record. Its file modification
// time versus the source file's is what decides idempotent skips.
type ProcessingInfo struct {
	VideoID           string                 `yaml:"video_id"`
	SourceVideo       string                 `yaml:"source_video"`
	SourceFPS         float64                `yaml:"source_fps"`
	CanonicalVariant  string                 `yaml:"canonical_variant,omitempty"`
	RunID             string                 `yaml:"run_id"`
	ProcessedAt       time.Time              `yaml:"processed_at"`
	ProcessedVariants map[string]VariantInfo `yaml:"processed_variants"`
	Results           map[string]ResultInfo  `yaml:"processing_results"`
}

func (l *Layout) WriteProcessingInfo(info *ProcessingInfo) error {
	if err := os.MkdirAll(l.VideoDir(info.VideoID), 0755); err != nil {
		return fmt.Errorf("create video dir: %w", err)
	}

	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal processing info: %w", err)
	}

	path := l.ProcessingInfoPath(info.VideoID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (l *Layout) ReadProcessingInfo(videoID string) (*ProcessingInfo, error) {
	data, err := os.ReadFile(l.ProcessingInfoPath(videoID))
	if err != nil {
		return nil, fmt.Errorf("read processing info: %w", err)
	}
	var info ProcessingInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse processing info: %w", err)
	}
	return &info, nil
}

// ShouldSkip reports whether a prior run already produced everything this
// config asks for: the processing record exists, is newer than the source
// file, every recorded result succeeded, and every expected artifact is
// still on disk.
func (l *Layout) ShouldSkip(cfg entity.VideoConfig) bool {
	infoStat, err := os.Stat(l.ProcessingInfoPath(cfg.ID))
	if err != nil {
		return false
	}
	srcStat, err := os.Stat(cfg.SourcePath)
	if err != nil {
		return false
	}
	if srcStat.ModTime().After(infoStat.ModTime()) {
		return false
	}

	info, err := l.ReadProcessingInfo(cfg.ID)
	if err != nil {
		return false
	}

	for _, key := range cfg.ExpectedVariants() {
		res, ok := info.Results[key.String()]
		if !ok || !res.Success {
			return false
		}
		if _, err := os.Stat(l.VariantVideoPath(cfg.ID, key)); err != nil {
			return false
		}
		if _, err := os.Stat(l.FramesDir(cfg.ID, key)); err != nil {
			return false
		}
	}
	return true
}

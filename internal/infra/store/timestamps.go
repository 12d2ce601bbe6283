package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/laielli/vlmlabel/internal/domain/entity"
)

// The JSON shape below is an external contract: the annotation UI resolves
// a clicked frame thumbnail to a seek position through it.

type frameEntry struct {
	FrameIndex  int     `json:"frame_index"`
	Timestamp   float64 `json:"timestamp"`
	FrameNumber int     `json:"frame_number"`
}

type timestampFile struct {
	Variant      string                `json:"variant"`
	TotalFrames  int                   `json:"total_frames"`
	FrameMapping map[string]frameEntry `json:"frame_mapping"`
}

// WriteFrameTimestamps persists the frame->timestamp map for one variant
// alongside its frames.
func (l *Layout) WriteFrameTimestamps(videoID string, key entity.VariantKey, records []entity.FrameRecord) error {
	mapping := make(map[string]frameEntry, len(records))
	for _, rec := range records {
		mapping[rec.Filename] = frameEntry{
			FrameIndex:  rec.FrameIndex,
			Timestamp:   rec.Timestamp,
			FrameNumber: rec.FrameNumber,
		}
	}

	data, err := json.MarshalIndent(timestampFile{
		Variant:      key.String(),
		TotalFrames:  len(records),
		FrameMapping: mapping,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal frame timestamps: %w", err)
	}

	path := l.TimestampPath(videoID, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// FrameTimestamps returns filename -> timestamp for a variant. A missing
// timestamp file yields an empty map: the caller falls back to
// frame_index * (1/fps).
func (l *Layout) FrameTimestamps(videoID, variantKey string) (map[string]float64, error) {
	key, err := entity.ParseVariantKey(variantKey)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.TimestampPath(videoID, key))
	if os.IsNotExist(err) {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read frame timestamps: %w", err)
	}

	var file timestampFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse frame timestamps: %w", err)
	}

	out := make(map[string]float64, len(file.FrameMapping))
	for filename, entry := range file.FrameMapping {
		out[filename] = entry.Timestamp
	}
	return out, nil
}

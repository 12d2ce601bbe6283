package entity

import "fmt"

// MediaInfo is a read-only snapshot of a media file's properties. It is
// always re-derived from the file it describes, never persisted as
// authoritative.
type MediaInfo struct {
	Duration float64 // seconds
	FPS      float64
	Width    int
	Height   int
	Codec    string
}

// FrameRecord associates one extracted frame image with the presentation
// timestamp it occupies in its variant's video file. FrameIndex is
// zero-based and dense within a variant; FrameNumber is the 1-based
// numbering shown in the annotation UI.
type FrameRecord struct {
	FrameIndex  int
	Timestamp   float64
	Filename    string
	FrameNumber int
}

// FrameFilename returns the zero-based, fixed-width name the sampler gives
// the frame at the given index. The timestamp map must use identical names.
func FrameFilename(index int) string {
	return fmt.Sprintf("frame_%04d.jpg", index)
}

// ProcessingResult is the outcome for one VariantKey.
type ProcessingResult struct {
	Key           VariantKey
	Success       bool
	FrameCount    int
	HasTimestamps bool
	Error         string
}

// VideoResult aggregates per-variant outcomes for one video.
type VideoResult struct {
	VideoID string
	Skipped bool
	Results map[string]ProcessingResult
}

func NewVideoResult(videoID string) *VideoResult {
	return &VideoResult{VideoID: videoID, Results: make(map[string]ProcessingResult)}
}

func (r *VideoResult) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

func (r *VideoResult) FailureCount() int {
	return len(r.Results) - r.SuccessCount()
}

// AllFailed reports whether processing produced no usable variant at all.
// Partial success does not fail a batch; total failure does.
func (r *VideoResult) AllFailed() bool {
	return len(r.Results) > 0 && r.SuccessCount() == 0
}

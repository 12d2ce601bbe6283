package port

import "context"

// Transcoder re-encodes a source video into an intra-frame-only
// representation: every output frame independently decodable. All variants
// and clips are derived from its output, never from the original file.
type Transcoder interface {
	Transcode(ctx context.Context, sourcePath, outputPath string) error
}

// VariantEncoder produces a duration-preserving rendition of an
// intra-frame-only video at the target frame rate, duplicating frames when
// upsampling and dropping them when downsampling.
type VariantEncoder interface {
	Encode(ctx context.Context, sourcePath, outputPath string, targetFPS int) error
}

// ClipExtractor cuts a time-bounded sub-range out of an intra-frame-only
// video. Start and end are ffmpeg time strings.
type ClipExtractor interface {
	Extract(ctx context.Context, sourcePath, outputPath, start, end string) error
}

package port

import "context"

// TimestampSource recovers the exact presentation timestamp of every
// encoded frame of a video, in encoding order.
type TimestampSource interface {
	Timestamps(ctx context.Context, videoPath string) ([]float64, error)
}

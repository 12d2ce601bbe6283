package port

import (
	"context"

	"github.com/laielli/vlmlabel/internal/domain/entity"
)

// Prober queries a media file for duration, frame rate, resolution and
// codec. It must fail with entity.MediaUnreadableError when the file
// cannot be opened or has no video stream.
type Prober interface {
	Probe(ctx context.Context, path string) (entity.MediaInfo, error)
}

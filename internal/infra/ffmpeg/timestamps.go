package ffmpeg

import (
	"context"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"go.uber.org/zap"
)

// TimestampExtractor recovers the presentation timestamp of every encoded
// frame from the container, in presentation order. Computing index*(1/fps)
// instead silently disagrees with reality whenever actual frame spacing
// deviates from the nominal rate.
type TimestampExtractor struct {
	logger *zap.Logger
}

func NewTimestampExtractor(logger *zap.Logger) *TimestampExtractor {
	return &TimestampExtractor{logger: logger}
}

func (t *TimestampExtractor) Timestamps(ctx context.Context, videoPath string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time",
		"-of", "csv=p=0",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, &entity.ToolError{Tool: "ffprobe", Err: err}
	}

	timestamps := parsePTSLines(string(output))
	t.logger.Debug("recovered frame timestamps",
		zap.String("video", videoPath),
		zap.Int("count", len(timestamps)),
	)
	return timestamps, nil
}

// parsePTSLines parses ffprobe's csv packet listing. Packets arrive in
// container decode order, which is not pts order when the stream carries
// B-frames; extracted frames are written in presentation order, so the
// recovered timestamps are sorted ascending to pair with them.
func parsePTSLines(output string) []float64 {
	var timestamps []float64
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, ","))
		if line == "" {
			continue
		}
		ts, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	sort.Float64s(timestamps)
	return timestamps
}

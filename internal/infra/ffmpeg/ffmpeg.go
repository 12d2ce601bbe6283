// Package ffmpeg shells out to the ffmpeg/ffprobe tools. It owns command
// construction and output parsing only; all pixel-level work happens in the
// external tool.
package ffmpeg

import (
	"context"
	"os/exec"
	"strings"

	"github.com/laielli/vlmlabel/internal/domain/entity"
)

const (
	// Duration drift tolerated for full-video transcodes and fps variants.
	durationTolerance = 0.1
	// Clips tolerate more drift: boundary snapping to the nearest frame is
	// a larger relative error on short ranges.
	clipDurationTolerance = 0.2
	// Target rates within this of the source rate are treated as equal.
	fpsEpsilon = 0.01
)

// run executes ffmpeg with the given arguments and wraps a non-zero exit
// in an entity.ToolError carrying the combined output.
func run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &entity.ToolError{Tool: "ffmpeg", Err: err, Output: tail(string(output))}
	}
	return nil
}

// tail keeps the end of tool output, where ffmpeg puts its error lines.
func tail(s string) string {
	const max = 2048
	s = strings.TrimSpace(s)
	if len(s) > max {
		return s[len(s)-max:]
	}
	return s
}

package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/laielli/vlmlabel/internal/domain/entity"
)

// Prober reads media metadata with ffprobe. Duration comes from container
// metadata; the stream is never decoded.
type Prober struct{}

func NewProber() *Prober {
	return &Prober{}
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

func (p *Prober) Probe(ctx context.Context, path string) (entity.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return entity.MediaInfo{}, &entity.MediaUnreadableError{Path: path, Err: err}
	}

	info, err := parseProbeOutput(output)
	if err != nil {
		return entity.MediaInfo{}, &entity.MediaUnreadableError{Path: path, Err: err}
	}
	return info, nil
}

func parseProbeOutput(data []byte) (entity.MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return entity.MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var video *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return entity.MediaInfo{}, fmt.Errorf("no video stream")
	}

	duration, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return entity.MediaInfo{}, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}

	fps, err := parseRational(video.RFrameRate)
	if err != nil {
		return entity.MediaInfo{}, fmt.Errorf("parse frame rate %q: %w", video.RFrameRate, err)
	}

	return entity.MediaInfo{
		Duration: duration,
		FPS:      fps,
		Width:    video.Width,
		Height:   video.Height,
		Codec:    video.CodecName,
	}, nil
}

// parseRational evaluates ffprobe's "numerator/denominator" frame rate
// form, which keeps non-integer rates like 30000/1001 exact until the
// final division.
func parseRational(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return strconv.ParseFloat(s, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %q", s)
	}
	return n / d, nil
}

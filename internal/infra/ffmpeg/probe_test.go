package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeFixture = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "aac",
      "codec_type": "audio"
    },
    {
      "index": 1,
      "codec_name": "h264",
      "codec_type": "video",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "30000/1001"
    }
  ],
  "format": {
    "filename": "input.mp4",
    "duration": "7.700000"
  }
}`

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput([]byte(probeFixture))
	require.NoError(t, err)

	assert.InDelta(t, 7.7, info.Duration, 1e-9)
	assert.InDelta(t, 29.97, info.FPS, 0.001)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.Equal(t, "h264", info.Codec)
}

func TestParseProbeOutputNoVideoStream(t *testing.T) {
	audioOnly := `{"streams":[{"codec_type":"audio","codec_name":"mp3"}],"format":{"duration":"3.0"}}`
	_, err := parseProbeOutput([]byte(audioOnly))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no video stream")
}

func TestParseProbeOutputBadDuration(t *testing.T) {
	bad := `{"streams":[{"codec_type":"video","r_frame_rate":"30/1"}],"format":{"duration":"N/A"}}`
	_, err := parseProbeOutput([]byte(bad))
	assert.Error(t, err)
}

func TestParseRational(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"60/1", 60},
		{"30000/1001", 29.97003},
		{"24", 24},
		{"25/1", 25},
	}
	for _, tc := range cases {
		got, err := parseRational(tc.in)
		require.NoError(t, err, "parse %q", tc.in)
		assert.InDelta(t, tc.want, got, 0.0001, "parse %q", tc.in)
	}

	_, err := parseRational("30/0")
	assert.Error(t, err)
	_, err = parseRational("x/y")
	assert.Error(t, err)
}

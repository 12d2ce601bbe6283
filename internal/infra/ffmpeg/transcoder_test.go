package ffmpeg

import (
	"context"
	"testing"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubProber struct {
	infos map[string]entity.MediaInfo
}

func (s *stubProber) Probe(_ context.Context, path string) (entity.MediaInfo, error) {
	info, ok := s.infos[path]
	if !ok {
		return entity.MediaInfo{}, &entity.MediaUnreadableError{Path: path}
	}
	return info, nil
}

func observedTranscoder(prober *stubProber) (*Transcoder, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return NewTranscoder(prober, "fast", 18, zap.New(core)), logs
}

func TestCheckDurationDriftWithinTolerance(t *testing.T) {
	tc, logs := observedTranscoder(&stubProber{infos: map[string]entity.MediaInfo{
		"src.mp4": {Duration: 7.70},
		"out.mp4": {Duration: 7.74},
	}})

	require.NoError(t, tc.checkDurationDrift(context.Background(), "src.mp4", "out.mp4"))
	assert.Zero(t, logs.Len())
}

func TestCheckDurationDriftWarnsBeyondTolerance(t *testing.T) {
	tc, logs := observedTranscoder(&stubProber{infos: map[string]entity.MediaInfo{
		"src.mp4": {Duration: 7.70},
		"out.mp4": {Duration: 7.95},
	}})

	require.NoError(t, tc.checkDurationDrift(context.Background(), "src.mp4", "out.mp4"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "intra-frame transcode changed duration", logs.All()[0].Message)
}

// A source that became unreadable between the initial probe and the drift
// check must not fail the transcode, but the skipped check has to be
// visible in the log.
func TestCheckDurationDriftWarnsWhenSourceUnreadable(t *testing.T) {
	tc, logs := observedTranscoder(&stubProber{infos: map[string]entity.MediaInfo{
		"out.mp4": {Duration: 7.70},
	}})

	require.NoError(t, tc.checkDurationDrift(context.Background(), "src.mp4", "out.mp4"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "source probe failed after transcode, skipping duration check", logs.All()[0].Message)
}

func TestCheckDurationDriftFailsWhenOutputUnreadable(t *testing.T) {
	tc, _ := observedTranscoder(&stubProber{infos: map[string]entity.MediaInfo{
		"src.mp4": {Duration: 7.70},
	}})

	err := tc.checkDurationDrift(context.Background(), "src.mp4", "out.mp4")
	require.Error(t, err)
	var unreadable *entity.MediaUnreadableError
	assert.ErrorAs(t, err, &unreadable)
}

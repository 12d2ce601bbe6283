package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"github.com/laielli/vlmlabel/internal/infra/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProber struct {
	info     entity.MediaInfo
	failPath string
}

func (f *fakeProber) Probe(_ context.Context, path string) (entity.MediaInfo, error) {
	if f.failPath != "" && path == f.failPath {
		return entity.MediaInfo{}, &entity.MediaUnreadableError{Path: path}
	}
	return f.info, nil
}

type fakeTranscoder struct {
	calls atomic.Int32
	fail  bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, _, outputPath string) error {
	f.calls.Add(1)
	if f.fail {
		return &entity.ToolError{Tool: "ffmpeg", Err: fmt.Errorf("exit status 1")}
	}
	return os.WriteFile(outputPath, []byte("iframe"), 0644)
}

type fakeEncoder struct {
	failFPS map[int]bool
}

func (f *fakeEncoder) Encode(_ context.Context, _, outputPath string, targetFPS int) error {
	if f.failFPS[targetFPS] {
		return &entity.ToolError{Tool: "ffmpeg", Err: fmt.Errorf("exit status 1")}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("variant"), 0644)
}

type fakeClipper struct {
	fail bool
}

func (f *fakeClipper) Extract(_ context.Context, _, outputPath, _, _ string) error {
	if f.fail {
		return &entity.ToolError{Tool: "ffmpeg", Err: fmt.Errorf("exit status 1")}
	}
	return os.WriteFile(outputPath, []byte("clip"), 0644)
}

type fakeSampler struct {
	frames int
}

func (f *fakeSampler) Sample(_ context.Context, _, outputDir string, _ int) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}
	for i := 0; i < f.frames; i++ {
		path := filepath.Join(outputDir, entity.FrameFilename(i))
		if err := os.WriteFile(path, []byte("jpg"), 0644); err != nil {
			return 0, err
		}
	}
	return f.frames, nil
}

type fakeTimestamps struct {
	timestamps []float64
	err        error
}

func (f *fakeTimestamps) Timestamps(_ context.Context, _ string) ([]float64, error) {
	return f.timestamps, f.err
}

type fixture struct {
	coordinator *Coordinator
	layout      *store.Layout
	transcoder  *fakeTranscoder
	prober      *fakeProber
	encoder     *fakeEncoder
	clipper     *fakeClipper
	timestamps  *fakeTimestamps
	cfg         entity.VideoConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "demo.mp4")
	require.NoError(t, os.WriteFile(src, []byte("source"), 0644))

	f := &fixture{
		layout:     store.NewLayout(t.TempDir()),
		prober:     &fakeProber{info: entity.MediaInfo{Duration: 7.7, FPS: 60, Width: 640, Height: 480, Codec: "h264"}},
		transcoder: &fakeTranscoder{},
		encoder:    &fakeEncoder{failFPS: map[int]bool{}},
		clipper:    &fakeClipper{},
		timestamps: &fakeTimestamps{timestamps: risingTimestamps(10, 0.1)},
		cfg: entity.VideoConfig{
			ID:          "demo",
			SourcePath:  src,
			FPSVariants: []int{30, 10},
			Clips: []entity.ClipConfig{
				{Name: "clip_001", Start: "00:00:03.0", End: "00:00:05.0", FPS: []int{10}},
			},
		},
	}
	f.coordinator = NewCoordinator(
		f.prober, f.transcoder, f.encoder, f.clipper,
		&fakeSampler{frames: 5}, f.timestamps,
		f.layout, zap.NewNop(),
		CoordinatorConfig{TempDir: t.TempDir(), Workers: 2},
	)
	return f
}

func risingTimestamps(n int, step float64) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) * step
	}
	return ts
}

func TestProcessVideoHappyPath(t *testing.T) {
	f := newFixture(t)

	result, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindAll})
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	require.Len(t, result.Results, 3)

	for _, keyStr := range []string{"full_30", "full_10", "clip_001_10"} {
		res, ok := result.Results[keyStr]
		require.True(t, ok, "missing result for %s", keyStr)
		assert.True(t, res.Success, keyStr)
		assert.Equal(t, 5, res.FrameCount, keyStr)
		assert.True(t, res.HasTimestamps, keyStr)

		key, err := entity.ParseVariantKey(keyStr)
		require.NoError(t, err)
		assert.FileExists(t, f.layout.VariantVideoPath("demo", key))
		assert.FileExists(t, f.layout.TimestampPath("demo", key))
	}

	assert.Equal(t, int32(1), f.transcoder.calls.Load(), "transcode runs exactly once per video")
	assert.Equal(t, 0, result.FailureCount())

	info, err := f.layout.ReadProcessingInfo("demo")
	require.NoError(t, err)
	assert.Equal(t, 60.0, info.SourceFPS)
	assert.Len(t, info.Results, 3)
	assert.True(t, info.Results["full_30"].HasTimestamps)
}

func TestProcessVideoIdempotentSkip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.coordinator.ProcessVideo(ctx, f.cfg, Options{Kind: KindAll})
	require.NoError(t, err)
	require.Equal(t, 3, first.SuccessCount())

	second, err := f.coordinator.ProcessVideo(ctx, f.cfg, Options{Kind: KindAll})
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, int32(1), f.transcoder.calls.Load(), "skip must not re-transcode")

	forced, err := f.coordinator.ProcessVideo(ctx, f.cfg, Options{Kind: KindAll, Force: true})
	require.NoError(t, err)
	assert.False(t, forced.Skipped)
	assert.Equal(t, int32(2), f.transcoder.calls.Load())
}

func TestProcessVideoShortTimestampRecovery(t *testing.T) {
	f := newFixture(t)
	f.timestamps.timestamps = risingTimestamps(3, 0.1) // fewer than 5 frames

	result, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindFull})
	require.NoError(t, err)

	res := result.Results["full_30"]
	assert.True(t, res.Success, "short recovery degrades, it does not fail")
	assert.False(t, res.HasTimestamps)
	assert.NoFileExists(t, f.layout.TimestampPath("demo", entity.FullVariant(30)))

	// Readers fall back to frame_index * (1/fps) via the empty map.
	m, err := f.layout.FrameTimestamps("demo", "full_30")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestProcessVideoTimestampInversion(t *testing.T) {
	f := newFixture(t)
	f.timestamps.timestamps = []float64{0, 0.1, 0.05, 0.2, 0.3}

	result, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindFull})
	require.NoError(t, err)

	res := result.Results["full_30"]
	assert.True(t, res.Success)
	assert.False(t, res.HasTimestamps)
}

func TestProcessVideoVariantFailureIsolated(t *testing.T) {
	f := newFixture(t)
	f.encoder.failFPS[10] = true

	result, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindFull})
	require.NoError(t, err)

	assert.True(t, result.Results["full_30"].Success)
	assert.False(t, result.Results["full_10"].Success)
	assert.NotEmpty(t, result.Results["full_10"].Error)
	assert.False(t, result.AllFailed())

	// No valid-looking partial artifacts for the failed key.
	assert.NoFileExists(t, f.layout.VariantVideoPath("demo", entity.FullVariant(10)))
	assert.NoDirExists(t, f.layout.FramesDir("demo", entity.FullVariant(10)))
}

func TestProcessVideoClipFailureMarksClipVariants(t *testing.T) {
	f := newFixture(t)
	f.clipper.fail = true

	result, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindAll})
	require.NoError(t, err)

	assert.True(t, result.Results["full_30"].Success)
	assert.True(t, result.Results["full_10"].Success)
	res := result.Results["clip_001_10"]
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "extract clip")
}

func TestProcessVideoUnreadableSourceWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.prober.failPath = f.cfg.SourcePath

	_, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindAll})
	require.Error(t, err)
	var unreadable *entity.MediaUnreadableError
	assert.ErrorAs(t, err, &unreadable)

	assert.NoDirExists(t, f.layout.VideoDir("demo"))
}

func TestProcessVideoValidateOnly(t *testing.T) {
	f := newFixture(t)

	result, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindAll, ValidateOnly: true})
	require.NoError(t, err)
	assert.Empty(t, result.Results)
	assert.Equal(t, int32(0), f.transcoder.calls.Load())
	assert.NoDirExists(t, f.layout.VideoDir("demo"))
}

func TestProcessVideoKindRestriction(t *testing.T) {
	f := newFixture(t)

	result, err := f.coordinator.ProcessVideo(context.Background(), f.cfg, Options{Kind: KindClips})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Contains(t, result.Results, "clip_001_10")
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"all", "full", "clips"} {
		kind, err := ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, Kind(s), kind)
	}
	_, err := ParseKind("everything")
	assert.Error(t, err)
}

func TestProcessBatch(t *testing.T) {
	f := newFixture(t)

	badDir := t.TempDir()
	badSrc := filepath.Join(badDir, "corrupt.mp4")
	require.NoError(t, os.WriteFile(badSrc, []byte("corrupt"), 0644))
	f.prober.failPath = badSrc

	badCfg := entity.VideoConfig{ID: "corrupt", SourcePath: badSrc, FPSVariants: []int{30}}

	summary := f.coordinator.ProcessBatch(context.Background(), []entity.VideoConfig{f.cfg, badCfg}, Options{Kind: KindAll}, 2)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"corrupt"}, summary.FailedVideos)
	assert.False(t, summary.OK())
}

package config

import (
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration, read from the environment. The
// video library itself lives in the YAML file at LibraryPath.
type Config struct {
	LibraryPath string `env:"VLMLABEL_CONFIG" envDefault:"config.yaml"`
	OutputRoot  string `env:"VLMLABEL_OUTPUT_ROOT" envDefault:"videos"`
	TempDir     string `env:"VLMLABEL_TEMP_DIR" envDefault:"/tmp/vlmlabel"`

	// WorkerCount bounds concurrent variant/clip tasks within one video;
	// zero means one per CPU core.
	WorkerCount      int `env:"VLMLABEL_WORKER_COUNT" envDefault:"0"`
	BatchConcurrency int `env:"VLMLABEL_BATCH_CONCURRENCY" envDefault:"1"`

	FFmpegPreset string `env:"VLMLABEL_FFMPEG_PRESET" envDefault:"fast"`
	FFmpegCRF    int    `env:"VLMLABEL_FFMPEG_CRF" envDefault:"18"`

	// MetricsPort of zero disables the metrics server; an empty
	// OTLPEndpoint disables tracing.
	MetricsPort  int    `env:"VLMLABEL_METRICS_PORT" envDefault:"0"`
	OTLPEndpoint string `env:"VLMLABEL_OTLP_ENDPOINT" envDefault:""`
	LogLevel     string `env:"VLMLABEL_LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 1
	}
	return cfg, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"github.com/laielli/vlmlabel/internal/infra/config"
	"github.com/laielli/vlmlabel/internal/infra/ffmpeg"
	"github.com/laielli/vlmlabel/internal/infra/metrics"
	"github.com/laielli/vlmlabel/internal/infra/store"
	"github.com/laielli/vlmlabel/internal/infra/tracing"
	"github.com/laielli/vlmlabel/internal/usecase"
	"github.com/laielli/vlmlabel/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "preprocess",
		Short:         "Prepare source videos for frame-accurate annotation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newLibraryCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		videoID      string
		processType  string
		force        bool
		validateOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process configured videos into variants, frames and timestamp maps",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := usecase.ParseKind(processType)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), videoID, usecase.Options{
				Force:        force,
				Kind:         kind,
				ValidateOnly: validateOnly,
			})
		},
	}

	cmd.Flags().StringVar(&videoID, "video", "", "process a single video id")
	cmd.Flags().StringVar(&processType, "type", "all", "restrict processing: full, clips or all")
	cmd.Flags().BoolVar(&force, "force", false, "reprocess even when artifacts are up to date")
	cmd.Flags().BoolVar(&validateOnly, "validate", false, "validate configuration and sources without processing")
	return cmd
}

func newLibraryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "List configured videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			videos, err := config.LoadLibrary(cfg.LibraryPath)
			if err != nil {
				return err
			}
			for _, v := range videos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d variants\t%d clips\n",
					v.ID, v.SourcePath, len(v.FPSVariants), len(v.Clips))
			}
			return nil
		},
	}
}

func runPipeline(parent context.Context, videoID string, opts usecase.Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing is non-fatal when the collector is unavailable.
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	if cfg.MetricsPort > 0 {
		srv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	videos, err := config.LoadLibrary(cfg.LibraryPath)
	if err != nil {
		log.Error("configuration invalid", zap.Error(err))
		return err
	}
	if videoID != "" {
		videos = filterByID(videos, videoID)
		if len(videos) == 0 {
			return fmt.Errorf("video id %q not found in %s", videoID, cfg.LibraryPath)
		}
	}

	prober := ffmpeg.NewProber()
	layout := store.NewLayout(cfg.OutputRoot)
	coordinator := usecase.NewCoordinator(
		prober,
		ffmpeg.NewTranscoder(prober, cfg.FFmpegPreset, cfg.FFmpegCRF, log),
		ffmpeg.NewVariantEncoder(prober, cfg.FFmpegPreset, log),
		ffmpeg.NewClipCutter(prober, cfg.FFmpegPreset, log),
		ffmpeg.NewSampler(prober, log),
		ffmpeg.NewTimestampExtractor(log),
		layout,
		log,
		usecase.CoordinatorConfig{TempDir: cfg.TempDir, Workers: cfg.WorkerCount},
	)

	log.Info("starting batch",
		zap.Int("videos", len(videos)),
		zap.String("type", string(opts.Kind)),
		zap.Bool("force", opts.Force),
		zap.Bool("validate_only", opts.ValidateOnly),
	)

	summary := coordinator.ProcessBatch(ctx, videos, opts, cfg.BatchConcurrency)

	log.Info("batch finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("partial", summary.Partial),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", summary.Elapsed),
	)

	if !summary.OK() {
		return fmt.Errorf("%d video(s) failed: %v", summary.Failed, summary.FailedVideos)
	}
	return nil
}

func filterByID(videos []entity.VideoConfig, id string) []entity.VideoConfig {
	for _, v := range videos {
		if v.ID == id {
			return []entity.VideoConfig{v}
		}
	}
	return nil
}

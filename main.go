package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"centroidfinder/config"
	"centroidfinder/image2groups"
	"centroidfinder/logger"
	"centroidfinder/metrics"
	"centroidfinder/track2store"
	"centroidfinder/video2frames"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) (err error) {
	target, err := cfg.Target()
	if err != nil {
		return err
	}
	finder, err := image2groups.New(target, cfg.Threshold, log)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	source, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := source.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	writer, err := track2store.Open(ctx, cfg.Output, track2store.Options{Log: log, RunID: cfg.RunID})
	if err != nil {
		return err
	}

	runner := &Runner{
		Source:        source,
		Finder:        finder,
		Writer:        writer,
		Metrics:       collector,
		Workers:       cfg.Workers(),
		MaxFrames:     cfg.MaxFrames,
		ProgressEvery: cfg.ProgressEvery,
		Log:           log,
	}
	if cfg.DebugFrame >= 0 {
		runner.Debug = &DebugOutput{Frame: cfg.DebugFrame, Dir: cfg.DebugDir, Binarizer: finder.Binarizer()}
	}

	log.Info().
		Str("source", cfg.Source).
		Str("input", cfg.Input).
		Str("output", cfg.Output).
		Stringer("target", target).
		Float64("threshold", cfg.Threshold).
		Int("workers", runner.Workers).
		Msg("starting")
	_, err = runner.Run(ctx)
	return err
}

func openSource(ctx context.Context, cfg config.Config, log zerolog.Logger) (video2frames.Source, error) {
	switch cfg.Source {
	case config.SourceVideo:
		return video2frames.OpenVideo(ctx, cfg.Input, video2frames.VideoOptions{
			FPS:      cfg.FPS,
			MaxWidth: cfg.MaxWidth,
			Log:      log,
		})
	case config.SourceImage:
		paths, err := video2frames.GlobImages(cfg.Input)
		if err != nil {
			return nil, err
		}
		log.Info().Int("images", len(paths)).Msg("images found")
		return video2frames.NewImageSource(paths, cfg.Interval), nil
	case config.SourceScreen:
		return video2frames.NewScreenSource(video2frames.DisplayCapture(cfg.Display), cfg.Interval, cfg.MaxFrames), nil
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}

func serveMetrics(addr string, collector *metrics.Collector, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}

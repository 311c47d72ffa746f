// Package main is buoytrack command: detects buoys on frames and keeps their identities.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/LdDl/buoy-go/buoy"
	"github.com/LdDl/buoy-go/config"
	"github.com/LdDl/buoy-go/detector"
	"github.com/LdDl/buoy-go/metrics"
	"github.com/LdDl/buoy-go/pipeline"
	"github.com/LdDl/buoy-go/render"
)

const (
	flagConfig        = "config"
	flagLogLevel      = "log-level"
	flagMetricsListen = "metrics-listen"
	flagVerbose       = "verbose"
	flagFile          = "file"
	flagSource        = "source"
	flagOverlayDir    = "overlay-dir"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "buoytrack",
		Usage: "detect buoys on a video stream and track their identities",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "path to YAML config",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "override logging.level from config",
			},
			&cli.StringFlag{
				Name:  flagMetricsListen,
				Usage: "override metrics.listen from config, e.g. :9100",
			},
			&cli.BoolFlag{
				Name:  flagVerbose,
				Usage: "log candidates too, not only confirmed buoys",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "track buoys from pre-recorded detections",
				ArgsUsage: "--file detections.yaml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagFile,
						Aliases:  []string{"f"},
						Usage:    "YAML file with detections per frame",
						Required: true,
					},
				},
				Action: replayAction,
			},
			{
				Name:  "camera",
				Usage: "track buoys from a camera or a video file (needs -tags withcv)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagSource,
						Usage: "camera device id or video file path",
						Value: "0",
					},
					&cli.StringFlag{
						Name:  flagOverlayDir,
						Usage: "write annotated frames into this directory",
					},
				},
				Action: cameraAction,
			},
		},
	}
}

// env is everything commands share
type env struct {
	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
	tracker   *buoy.Tracker
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	if c.IsSet(flagLogLevel) {
		cfg.Logging.Level = c.String(flagLogLevel)
	}
	if c.IsSet(flagMetricsListen) {
		cfg.Metrics.Listen = c.String(flagMetricsListen)
	}
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return nil, err
	}
	collector := metrics.New()
	tracker := buoy.NewTracker(
		buoy.WithConfig(cfg.BuoyConfig()),
		buoy.WithLogger(logger.Named("tracker")),
		buoy.WithObserver(collector),
	)
	return &env{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		tracker:   tracker,
	}, nil
}

// serveMetrics starts /metrics endpoint when configured. Returned func stops it
func (e *env) serveMetrics() func() {
	if e.cfg.Metrics.Listen == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.collector.Handler())
	server := &http.Server{
		Addr:              e.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		e.logger.Info("serving metrics", zap.String("listen", e.cfg.Metrics.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			e.logger.Warn("can't stop metrics server", zap.Error(err))
		}
	}
}

func replayAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	replay, err := detector.LoadReplay(c.String(flagFile))
	if err != nil {
		return err
	}
	stop := e.serveMetrics()
	defer stop()

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New[detector.ReplayFrame](replay, replay, e.tracker,
		pipeline.WithSink[detector.ReplayFrame](render.NewLogSink[detector.ReplayFrame](e.logger.Named("sink"), c.Bool(flagVerbose))),
		pipeline.WithRecorder[detector.ReplayFrame](e.collector),
		pipeline.WithLogger[detector.ReplayFrame](e.logger.Named("pipeline")),
	)
	stats, err := p.Run(ctx)
	// Interruption is a normal way to stop
	if err != nil && !errors.Is(err, ctx.Err()) {
		return errors.Wrap(err, "Replay failed")
	}
	candidates, confirmed := e.tracker.Len()
	e.logger.Info("replay done",
		zap.Bool("interrupted", err != nil),
		zap.Int("frames", replay.Len()),
		zap.Int("processed", stats.Processed),
		zap.Int("candidates", candidates),
		zap.Int("confirmed", confirmed),
	)
	return nil
}

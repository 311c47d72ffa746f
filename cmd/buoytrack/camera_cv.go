//go:build withcv
// +build withcv

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gocv.io/x/gocv"

	"github.com/LdDl/buoy-go/detector"
	"github.com/LdDl/buoy-go/pipeline"
	"github.com/LdDl/buoy-go/render"
)

func cameraAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	capture, err := detector.OpenCapture(c.String(flagSource))
	if err != nil {
		return err
	}
	defer capture.Close()

	det := detector.NewOpenCV(e.cfg.DetectorParams())
	defer det.Close()

	options := []pipeline.Option[gocv.Mat]{
		pipeline.WithSink[gocv.Mat](render.NewLogSink[gocv.Mat](e.logger.Named("sink"), c.Bool(flagVerbose))),
		pipeline.WithRecorder[gocv.Mat](e.collector),
		pipeline.WithLogger[gocv.Mat](e.logger.Named("pipeline")),
	}
	if dir := c.String(flagOverlayDir); dir != "" {
		overlay, err := render.NewOverlay(dir)
		if err != nil {
			return err
		}
		options = append(options, pipeline.WithSink[gocv.Mat](overlay))
	}

	stop := e.serveMetrics()
	defer stop()

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New[gocv.Mat](capture, det, e.tracker, options...)
	if _, err := p.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return errors.Wrap(err, "Camera tracking failed")
	}
	return nil
}

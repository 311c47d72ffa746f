// Package pipeline drives frames through detector, tracker and sinks.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/LdDl/buoy-go/buoy"
)

// Source yields frames. It returns io.EOF when there are no more frames.
type Source[F any] interface {
	Next(ctx context.Context) (F, error)
}

// Detector extracts raw detections from a frame
type Detector[F any] interface {
	Detect(frame F) ([]buoy.Detection, error)
}

// Sink consumes tracker output for every processed frame
type Sink[F any] interface {
	Render(frame F, result Result) error
}

// Recorder collects per-frame statistics (see metrics package)
type Recorder interface {
	FrameProcessed(detections, candidates, confirmed int, took time.Duration)
	FrameSkipped()
}

// Result is tracker state after a frame has been processed
type Result struct {
	Index int
	// Raw detections with identifiers assigned by tracker
	Detections []buoy.Detection
	Candidates []buoy.TrackedObject
	Confirmed  []buoy.TrackedObject
}

// Stats summarizes a run
type Stats struct {
	Processed int
	Skipped   int
}

// Pipeline processes frames one at a time: Source -> Detector -> Tracker -> Sinks
type Pipeline[F any] struct {
	source   Source[F]
	detector Detector[F]
	tracker  *buoy.Tracker
	sinks    []Sink[F]
	recorder Recorder
	logger   *zap.Logger
}

// Option configures Pipeline
type Option[F any] func(*Pipeline[F])

// WithSink adds sink
func WithSink[F any](sink Sink[F]) Option[F] {
	return func(p *Pipeline[F]) {
		p.sinks = append(p.sinks, sink)
	}
}

// WithRecorder sets statistics recorder
func WithRecorder[F any](recorder Recorder) Option[F] {
	return func(p *Pipeline[F]) {
		p.recorder = recorder
	}
}

// WithLogger sets logger. Default is no-op logger
func WithLogger[F any](logger *zap.Logger) Option[F] {
	return func(p *Pipeline[F]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates pipeline
func New[F any](source Source[F], detector Detector[F], tracker *buoy.Tracker, options ...Option[F]) *Pipeline[F] {
	p := &Pipeline[F]{
		source:   source,
		detector: detector,
		tracker:  tracker,
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Run processes frames until source is exhausted or context is done.
// Frames detector fails on are skipped: tracker is not invoked for them.
// Frames implementing io.Closer (directly or through pointer) are closed once processed.
func (p *Pipeline[F]) Run(ctx context.Context) (Stats, error) {
	stats := Stats{}
	for index := 0; ; index++ {
		frame, err := p.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.logger.Info("source exhausted", zap.Int("processed", stats.Processed), zap.Int("skipped", stats.Skipped))
				return stats, nil
			}
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			return stats, errors.Wrapf(err, "Can't read frame %d", index)
		}
		processed, err := p.step(index, frame)
		release(&frame, p.logger)
		if err != nil {
			return stats, err
		}
		if processed {
			stats.Processed++
		} else {
			stats.Skipped++
		}
	}
}

func (p *Pipeline[F]) step(index int, frame F) (bool, error) {
	start := time.Now()
	detections, err := p.detector.Detect(frame)
	if err != nil {
		p.logger.Warn("detection failed, frame skipped", zap.Int("frame", index), zap.Error(err))
		if p.recorder != nil {
			p.recorder.FrameSkipped()
		}
		return false, nil
	}
	snapshot := p.tracker.ProcessFrame(detections)
	result := Result{
		Index:      index,
		Detections: detections,
		Candidates: snapshot.Candidates,
		Confirmed:  snapshot.Confirmed,
	}
	if p.recorder != nil {
		p.recorder.FrameProcessed(len(detections), len(result.Candidates), len(result.Confirmed), time.Since(start))
	}
	for _, sink := range p.sinks {
		if err := sink.Render(frame, result); err != nil {
			return true, errors.Wrapf(err, "Can't render frame %d", index)
		}
	}
	return true, nil
}

func release[F any](frame *F, logger *zap.Logger) {
	closer, ok := any(*frame).(io.Closer)
	if !ok {
		// gocv.Mat closes through pointer receiver
		closer, ok = any(frame).(io.Closer)
	}
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("can't release frame", zap.Error(err))
	}
}

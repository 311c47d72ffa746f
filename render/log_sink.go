// Package render presents tracker output: structured logs everywhere, image overlays with OpenCV.
package render

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LdDl/buoy-go/buoy"
	"github.com/LdDl/buoy-go/pipeline"
)

// LogSink writes confirmed buoys of every frame to the logger
type LogSink[F any] struct {
	logger *zap.Logger
	// Log candidates too
	verbose bool
}

// NewLogSink creates sink. With verbose candidates are logged as well
func NewLogSink[F any](logger *zap.Logger, verbose bool) *LogSink[F] {
	return &LogSink[F]{
		logger:  logger,
		verbose: verbose,
	}
}

// Render implements pipeline.Sink
func (sink *LogSink[F]) Render(frame F, result pipeline.Result) error {
	fields := []zap.Field{
		zap.Int("frame", result.Index),
		zap.Int("detections", len(result.Detections)),
		zap.Array("confirmed", objectArray(result.Confirmed)),
	}
	if sink.verbose {
		fields = append(fields, zap.Array("candidates", objectArray(result.Candidates)))
	}
	sink.logger.Info("frame processed", fields...)
	return nil
}

type objectArray []buoy.TrackedObject

func (objects objectArray) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for i := range objects {
		if err := enc.AppendObject(trackedObject(objects[i])); err != nil {
			return err
		}
	}
	return nil
}

type trackedObject buoy.TrackedObject

func (object trackedObject) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("id", object.ID)
	enc.AddString("uid", object.UID.String())
	enc.AddInt("x", object.Center.X)
	enc.AddInt("y", object.Center.Y)
	sx, sy := (*buoy.TrackedObject)(&object).SmoothedCenter()
	enc.AddFloat64("smoothed_x", sx)
	enc.AddFloat64("smoothed_y", sy)
	enc.AddInt("radius", object.Radius)
	enc.AddInt("seen_count", object.SeenCount)
	enc.AddInt("last_seen", object.LastSeen)
	return nil
}

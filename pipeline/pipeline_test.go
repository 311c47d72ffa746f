package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/buoy-go/buoy"
	"github.com/LdDl/buoy-go/detector"
)

type collectingSink struct {
	results []Result
	fail    bool
}

func (s *collectingSink) Render(frame detector.ReplayFrame, result Result) error {
	if s.fail {
		return errors.New("disk is full")
	}
	s.results = append(s.results, result)
	return nil
}

type fakeRecorder struct {
	processed int
	skipped   int
	lastConf  int
}

func (r *fakeRecorder) FrameProcessed(detections, candidates, confirmed int, took time.Duration) {
	r.processed++
	r.lastConf = confirmed
}

func (r *fakeRecorder) FrameSkipped() {
	r.skipped++
}

// flakyDetector fails on selected frames
type flakyDetector struct {
	replay *detector.Replay
	failOn map[int]bool
}

func (d *flakyDetector) Detect(frame detector.ReplayFrame) ([]buoy.Detection, error) {
	if d.failOn[frame.Index] {
		return nil, errors.New("malformed frame")
	}
	return d.replay.Detect(frame)
}

func TestRunReplay(t *testing.T) {
	replay := detector.NewReplay([][]buoy.Detection{
		{buoy.NewDetection(100, 100, 30), buoy.NewDetection(400, 400, 30)},
		{buoy.NewDetection(104, 98, 30)},
		{},
	})
	tracker := buoy.NewTrackerDefault()
	sink := &collectingSink{}
	recorder := &fakeRecorder{}
	p := New[detector.ReplayFrame](replay, replay, tracker, WithSink[detector.ReplayFrame](sink), WithRecorder[detector.ReplayFrame](recorder))

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 3}, stats)
	assert.Equal(t, 3, recorder.processed)
	require.Len(t, sink.results, 3)

	first := sink.results[0]
	assert.Equal(t, 0, first.Index)
	assert.Len(t, first.Candidates, 2)
	assert.Empty(t, first.Confirmed)
	assert.Equal(t, 1, first.Detections[0].ID)
	assert.Equal(t, 2, first.Detections[1].ID)

	second := sink.results[1]
	require.Len(t, second.Confirmed, 1)
	assert.Equal(t, 1, second.Confirmed[0].ID)
	assert.Equal(t, 1, second.Detections[0].ID)
	assert.Equal(t, 1, recorder.lastConf)

	// Object 2 was created with last seen 2 and never matched: 2 -> 1 -> 0 -> -1
	third := sink.results[2]
	assert.Len(t, third.Confirmed, 1)
	assert.Empty(t, third.Candidates)

	// Sinks get the state of the frame they render
	assert.Equal(t, tracker.Snapshot(), buoy.Snapshot{Candidates: third.Candidates, Confirmed: third.Confirmed})
}

func TestRunSkipsFailedFrames(t *testing.T) {
	replay := detector.NewReplay([][]buoy.Detection{
		{buoy.NewDetection(100, 100, 30)},
		{buoy.NewDetection(100, 100, 30)},
		{buoy.NewDetection(101, 100, 30)},
	})
	tracker := buoy.NewTrackerDefault()
	recorder := &fakeRecorder{}
	sink := &collectingSink{}
	p := New[detector.ReplayFrame](replay, &flakyDetector{replay: replay, failOn: map[int]bool{1: true}}, tracker,
		WithSink[detector.ReplayFrame](sink),
		WithRecorder[detector.ReplayFrame](recorder),
	)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Skipped: 1}, stats)
	assert.Equal(t, 1, recorder.skipped)
	require.Len(t, sink.results, 2)
	assert.Equal(t, 2, sink.results[1].Index)

	// Tracker has not been aged on the skipped frame: 2-1 = 1, then +6-1 = 6
	objects := tracker.Objects()
	require.Len(t, objects, 1)
	assert.Equal(t, 6, objects[0].LastSeen)
}

func TestRunSinkError(t *testing.T) {
	replay := detector.NewReplay([][]buoy.Detection{{buoy.NewDetection(100, 100, 30)}})
	p := New[detector.ReplayFrame](replay, replay, buoy.NewTrackerDefault(), WithSink[detector.ReplayFrame](&collectingSink{fail: true}))
	_, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "disk is full")
}

func TestRunCancelled(t *testing.T) {
	replay := detector.NewReplay([][]buoy.Detection{{buoy.NewDetection(100, 100, 30)}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New[detector.ReplayFrame](replay, replay, buoy.NewTrackerDefault())
	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type closableFrame struct {
	closed *int
}

func (f *closableFrame) Close() error {
	*f.closed++
	return nil
}

type closableSource struct {
	left   int
	closed int
}

func (s *closableSource) Next(ctx context.Context) (closableFrame, error) {
	if s.left == 0 {
		return closableFrame{}, io.EOF
	}
	s.left--
	return closableFrame{closed: &s.closed}, nil
}

type noDetections struct{}

func (noDetections) Detect(frame closableFrame) ([]buoy.Detection, error) {
	return nil, nil
}

func TestRunReleasesFrames(t *testing.T) {
	source := &closableSource{left: 4}
	p := New[closableFrame](source, noDetections{}, buoy.NewTrackerDefault())
	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 4, source.closed)
}

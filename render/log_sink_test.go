package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/LdDl/buoy-go/buoy"
	"github.com/LdDl/buoy-go/pipeline"
)

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tracker := buoy.NewTrackerDefault()
	tracker.ProcessFrame([]buoy.Detection{buoy.NewDetection(100, 100, 30), buoy.NewDetection(300, 300, 30)})
	snapshot := tracker.ProcessFrame([]buoy.Detection{buoy.NewDetection(102, 99, 30)})

	result := pipeline.Result{
		Index:      1,
		Detections: []buoy.Detection{buoy.NewDetection(102, 99, 30)},
		Candidates: snapshot.Candidates,
		Confirmed:  snapshot.Confirmed,
	}

	sink := NewLogSink[struct{}](zap.New(core), true)
	require.NoError(t, sink.Render(struct{}{}, result))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 1, fields["frame"])
	assert.EqualValues(t, 1, fields["detections"])

	confirmed, ok := fields["confirmed"].([]interface{})
	require.True(t, ok)
	require.Len(t, confirmed, 1)
	object := confirmed[0].(map[string]interface{})
	assert.EqualValues(t, 1, object["id"])
	assert.EqualValues(t, 102, object["x"])
	sx, sy := result.Confirmed[0].SmoothedCenter()
	assert.Equal(t, sx, object["smoothed_x"])
	assert.Equal(t, sy, object["smoothed_y"])
	assert.NotEqual(t, 102.0, object["smoothed_x"])

	candidates, ok := fields["candidates"].([]interface{})
	require.True(t, ok)
	assert.Len(t, candidates, 1)
}

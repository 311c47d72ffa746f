package detector

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/LdDl/buoy-go/buoy"
)

// ReplayFrame is a frame of pre-recorded detections
type ReplayFrame struct {
	Index      int
	Detections []buoy.Detection
}

type replayCircle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	R int `yaml:"r"`
}

type replayFile struct {
	Frames []struct {
		Detections []replayCircle `yaml:"detections"`
	} `yaml:"frames"`
}

// Replay feeds pre-recorded detections frame by frame. It is both a frame source and a detector.
//
// File format:
//
//	frames:
//	  - detections:
//	      - {x: 100, y: 100, r: 30}
//	  - detections: []
type Replay struct {
	frames []ReplayFrame
	next   int
}

// NewReplay creates replay from frames in memory
func NewReplay(frames [][]buoy.Detection) *Replay {
	replay := &Replay{
		frames: make([]ReplayFrame, len(frames)),
	}
	for i, detections := range frames {
		replay.frames[i] = ReplayFrame{Index: i, Detections: detections}
	}
	return replay
}

// LoadReplay reads replay from YAML file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read replay file")
	}
	return ParseReplay(data)
}

// ParseReplay parses replay from YAML document
func ParseReplay(data []byte) (*Replay, error) {
	var file replayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "Can't parse replay")
	}
	frames := make([][]buoy.Detection, len(file.Frames))
	for i, frame := range file.Frames {
		frames[i] = make([]buoy.Detection, len(frame.Detections))
		for j, circle := range frame.Detections {
			frames[i][j] = buoy.NewDetection(circle.X, circle.Y, circle.R)
		}
	}
	return NewReplay(frames), nil
}

// Len returns total number of frames
func (replay *Replay) Len() int {
	return len(replay.frames)
}

// Next returns next frame or io.EOF when frames are exhausted
func (replay *Replay) Next(ctx context.Context) (ReplayFrame, error) {
	if err := ctx.Err(); err != nil {
		return ReplayFrame{}, err
	}
	if replay.next >= len(replay.frames) {
		return ReplayFrame{}, io.EOF
	}
	frame := replay.frames[replay.next]
	replay.next++
	return frame, nil
}

// Detect returns copy of frame's detections, so tracker's id assignment does not leak into the replay
func (replay *Replay) Detect(frame ReplayFrame) ([]buoy.Detection, error) {
	detections := make([]buoy.Detection, len(frame.Detections))
	copy(detections, frame.Detections)
	return detections, nil
}

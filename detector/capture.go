//go:build withcv
// +build withcv

package detector

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Capture reads frames from a camera device or a video file
type Capture struct {
	capture *gocv.VideoCapture
}

// OpenCapture opens video file when source is an existing path, camera device id otherwise
func OpenCapture(source string) (*Capture, error) {
	var capture *gocv.VideoCapture
	var err error
	if _, statErr := os.Stat(source); statErr == nil {
		capture, err = gocv.VideoCaptureFile(source)
	} else {
		deviceID, convErr := strconv.Atoi(source)
		if convErr != nil {
			return nil, errors.Wrapf(convErr, "Source %s is neither a file nor a device id", source)
		}
		capture, err = gocv.VideoCaptureDevice(deviceID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open capture %s", source)
	}
	return &Capture{capture: capture}, nil
}

// Next reads next frame. Caller owns returned Mat. io.EOF is returned when stream ends
func (c *Capture) Next(ctx context.Context) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, err
	}
	frame := gocv.NewMat()
	if ok := c.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, io.EOF
	}
	return frame, nil
}

func (c *Capture) Close() error {
	return c.capture.Close()
}

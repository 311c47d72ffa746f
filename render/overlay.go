//go:build withcv
// +build withcv

package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/LdDl/buoy-go/buoy"
	"github.com/LdDl/buoy-go/pipeline"
)

var (
	rawColor       = color.RGBA{255, 0, 255, 0}
	candidateColor = color.RGBA{0, 255, 255, 0}
	confirmedColor = color.RGBA{0, 255, 0, 0}
)

// Overlay draws detections and tracked buoys on a copy of every frame and writes it to a directory
type Overlay struct {
	dir string
}

// NewOverlay creates sink writing images into dir (created when missing)
func NewOverlay(dir string) (*Overlay, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "Can't create overlay directory %s", dir)
	}
	return &Overlay{dir: dir}, nil
}

// Render implements pipeline.Sink
func (overlay *Overlay) Render(frame gocv.Mat, result pipeline.Result) error {
	img := frame.Clone()
	defer img.Close()
	Draw(&img, result)
	path := filepath.Join(overlay.dir, fmt.Sprintf("frame_%06d.png", result.Index))
	if ok := gocv.IMWrite(path, img); !ok {
		return errors.Errorf("Can't write overlay %s", path)
	}
	return nil
}

// Draw puts raw detections, candidates and confirmed buoys on the image
func Draw(img *gocv.Mat, result pipeline.Result) {
	for _, detection := range result.Detections {
		gocv.Circle(img, detection.Center.ImagePoint(), detection.Radius, rawColor, 1)
	}
	for i := range result.Candidates {
		drawObject(img, &result.Candidates[i], candidateColor, 1)
	}
	for i := range result.Confirmed {
		drawObject(img, &result.Confirmed[i], confirmedColor, 2)
	}
}

// drawObject outlines the buoy at its smoothed position and marks the raw center with a dot
func drawObject(img *gocv.Mat, object *buoy.TrackedObject, clr color.RGBA, thickness int) {
	center := object.SmoothedPoint().ImagePoint()
	gocv.Circle(img, center, object.Radius, clr, thickness)
	gocv.Circle(img, object.Center.ImagePoint(), 2, clr, -1)
	track := object.Track()
	for i := 1; i < len(track); i++ {
		gocv.Line(img, track[i-1].ImagePoint(), track[i].ImagePoint(), clr, 1)
	}
	label := fmt.Sprintf("#%d", object.ID)
	gocv.PutText(img, label, center.Add(image.Pt(object.Radius, -object.Radius)), gocv.FontHersheySimplex, 0.5, clr, 1)
}

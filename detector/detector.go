// Package detector turns frames into raw buoy detections.
//
// OpenCV based implementation is compiled only with the "withcv" build tag, since it needs
// OpenCV installed. Replay works everywhere.
package detector

import (
	"github.com/pkg/errors"

	"github.com/LdDl/buoy-go/buoy"
)

// ErrOpenCVUnavailable is returned when binary was built without the "withcv" tag
var ErrOpenCVUnavailable = errors.New("buoytrack was built without OpenCV support (use -tags withcv)")

// Params of image processing and shape filtering
type Params struct {
	// Median blur aperture (odd). Default 5
	BlurKernel int
	// HSV channel to threshold: 0 - hue, 1 - saturation, 2 - value. Default 1
	Channel int
	// Adaptive threshold neighbourhood (odd). Default 15
	AdaptiveBlockSize int
	// Constant subtracted from the neighbourhood mean. Default 13
	AdaptiveC float32
	// Polygon approximation accuracy as a fraction of contour perimeter. Default 0.01
	ApproxEpsilon float64
	// Contour approximation must have more vertices than this. Default 10
	MinVertices int
	// Enclosing circle radius must be greater than this. Default 25
	MinRadius float64
}

// DefaultParams returns default parameters
func DefaultParams() Params {
	return Params{
		BlurKernel:        5,
		Channel:           1,
		AdaptiveBlockSize: 15,
		AdaptiveC:         13,
		ApproxEpsilon:     0.01,
		MinVertices:       10,
		MinRadius:         25,
	}
}

// Shape describes a single contour
type Shape struct {
	// Number of vertices after polygon approximation
	Vertices int
	// Minimum enclosing circle
	CenterX float64
	CenterY float64
	Radius  float64
}

// Accept reports whether shape looks like a buoy: round enough and big enough
func (params Params) Accept(shape Shape) bool {
	return shape.Vertices > params.MinVertices && shape.Radius > params.MinRadius
}

// Detection converts shape to detection. Coordinates are truncated
func (shape Shape) Detection() buoy.Detection {
	return buoy.NewDetection(int(shape.CenterX), int(shape.CenterY), int(shape.Radius))
}

// Filter keeps accepted shapes preserving their order
func (params Params) Filter(shapes []Shape) []buoy.Detection {
	detections := make([]buoy.Detection, 0, len(shapes))
	for _, shape := range shapes {
		if params.Accept(shape) {
			detections = append(detections, shape.Detection())
		}
	}
	return detections
}

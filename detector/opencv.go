//go:build withcv
// +build withcv

package detector

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/LdDl/buoy-go/buoy"
)

// OpenCV finds round blobs on BGR frames: median blur, HSV conversion, adaptive threshold
// of a single channel, morphological cleanup and contour shape filtering.
type OpenCV struct {
	params      Params
	erodeKernel gocv.Mat
	dilateKnl   gocv.Mat
}

// NewOpenCV creates detector. Call Close when done.
func NewOpenCV(params Params) *OpenCV {
	return &OpenCV{
		params:      params,
		erodeKernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3)),
		dilateKnl:   gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(4, 4)),
	}
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (d *OpenCV) Close() error {
	d.erodeKernel.Close()
	d.dilateKnl.Close()
	return nil
}

// Detect implements pipeline's detector for gocv frames
func (d *OpenCV) Detect(frame gocv.Mat) ([]buoy.Detection, error) {
	if frame.Empty() {
		return nil, nil
	}
	mask := d.Mask(frame)
	defer mask.Close()
	return d.params.Filter(d.Shapes(mask)), nil
}

// Mask returns binary image which contours are looked for. Caller owns returned Mat.
func (d *OpenCV) Mask(frame gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(frame, &blurred, d.params.BlurKernel)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(blurred, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	mask := gocv.NewMat()
	gocv.AdaptiveThreshold(channels[d.params.Channel], &mask, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinaryInv, d.params.AdaptiveBlockSize, d.params.AdaptiveC)

	// Remove noise, then fill small gaps
	gocv.Erode(mask, &mask, d.erodeKernel)
	gocv.Dilate(mask, &mask, d.dilateKnl)
	return mask
}

// Shapes describes every contour of the mask. Nothing is reported unless there is more than one contour.
func (d *OpenCV) Shapes(mask gocv.Mat) []Shape {
	contours := gocv.FindContours(mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() <= 1 {
		return nil
	}
	shapes := make([]Shape, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		approx := gocv.ApproxPolyDP(contour, d.params.ApproxEpsilon*gocv.ArcLength(contour, true), true)
		x, y, radius := gocv.MinEnclosingCircle(contour)
		shapes = append(shapes, Shape{
			Vertices: approx.Size(),
			CenterX:  float64(x),
			CenterY:  float64(y),
			Radius:   float64(radius),
		})
		approx.Close()
	}
	return shapes
}

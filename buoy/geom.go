package buoy

import (
	"image"
)

// Point is a pixel position on a frame.
type Point struct {
	X int
	Y int
}

func NewPoint(x, y int) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: point.X,
		Y: point.Y,
	}
}

// ImagePoint converts point to image.Point (handy for drawing)
func (p Point) ImagePoint() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// Detection is a single raw blob produced by a detector for one frame.
// ID stays zero until tracker reconciles detection with some tracked object.
type Detection struct {
	Center Point
	Radius int
	ID     int
}

func NewDetection(x, y, radius int) Detection {
	return Detection{
		Center: Point{X: x, Y: y},
		Radius: radius,
	}
}

// withinAxes reports whether both |dx| and |dy| are strictly less than threshold.
// Axes are compared independently: this is not a radial distance.
func withinAxes(p1, p2 Point, threshold int) bool {
	return absInt(p1.X-p2.X) < threshold && absInt(p1.Y-p2.Y) < threshold
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

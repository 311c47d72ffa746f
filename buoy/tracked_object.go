package buoy

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// State is the lifecycle tag of a tracked object.
type State uint8

const (
	// StateCandidate is an object seen too few times to be trusted
	StateCandidate State = iota
	// StateConfirmed is an object seen often enough to be reported downstream
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateCandidate:
		return "candidate"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// TrackedObject is a buoy whose identity is kept across frames.
// Objects returned by Tracker snapshots are copies: mutating them does not affect the tracker.
type TrackedObject struct {
	// Identifier assigned from tracker's counter. Never reused during tracker lifetime
	ID int
	// Globally unique identifier. Useful when ids from several tracker instances get mixed
	UID    uuid.UUID
	State  State
	Center Point
	Radius int
	// How many times object has been matched (each match adds Config.SeenIncrement)
	SeenCount int
	// Recency counter. Object is evicted when it drops below Config.EvictionThreshold
	LastSeen int

	smoothedX   float64
	smoothedY   float64
	track       []Point
	maxTrackLen int
	kf          *kalman_filter.Kalman2D
}

func newTrackedObject(id int, detection Detection, lastSeen, maxTrackLen int) *TrackedObject {
	/* Kalman filter props */
	// Buoys drift without commanded acceleration. Measurement noise covers contour jitter of a few pixels
	dt := 1.0
	ux := 0.0
	uy := 0.0
	stdDevA := 1.0
	stdDevMx := 3.0
	stdDevMy := 3.0
	x, y := float64(detection.Center.X), float64(detection.Center.Y)
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(x, y))
	object := TrackedObject{
		ID:          id,
		UID:         uuid.New(),
		State:       StateCandidate,
		Center:      detection.Center,
		Radius:      detection.Radius,
		SeenCount:   1,
		LastSeen:    lastSeen,
		smoothedX:   x,
		smoothedY:   y,
		track:       make([]Point, 0, maxTrackLen),
		maxTrackLen: maxTrackLen,
		kf:          kf,
	}
	object.appendTrack(detection.Center)
	return &object
}

// SmoothedCenter returns Kalman-filtered estimate of object's center.
// It follows prediction while the object is not matched
func (object *TrackedObject) SmoothedCenter() (float64, float64) {
	return object.smoothedX, object.smoothedY
}

// SmoothedPoint returns SmoothedCenter rounded to pixel grid
func (object *TrackedObject) SmoothedPoint() Point {
	return NewPoint(int(math.Round(object.smoothedX)), int(math.Round(object.smoothedY)))
}

// Track returns history of matched centers (oldest first)
func (object *TrackedObject) Track() []Point {
	return object.track
}

// IsConfirmed is shorthand for State == StateConfirmed
func (object *TrackedObject) IsConfirmed() bool {
	return object.State == StateConfirmed
}

// predict advances Kalman filter by one frame. Must be called exactly once per frame
func (object *TrackedObject) predict() {
	object.kf.Predict()
	object.smoothedX, object.smoothedY = object.kf.GetState()
}

// observe overwrites position with the detection's one and corrects Kalman filter with it.
// Several matches within one frame are several measurements of the same time step.
// When the filter fails the smoothed center falls back to the raw center and error is returned.
func (object *TrackedObject) observe(detection Detection) error {
	object.Center = detection.Center
	object.Radius = detection.Radius
	object.appendTrack(detection.Center)

	x, y := float64(detection.Center.X), float64(detection.Center.Y)
	err := object.kf.Update(x, y)
	if err != nil {
		object.smoothedX, object.smoothedY = x, y
		return errors.Wrapf(err, "Can't update Kalman filter of object %d", object.ID)
	}
	object.smoothedX, object.smoothedY = object.kf.GetState()
	return nil
}

func (object *TrackedObject) appendTrack(pt Point) {
	if object.maxTrackLen <= 0 {
		return
	}
	object.track = append(object.track, pt)
	if len(object.track) > object.maxTrackLen {
		object.track = object.track[1:]
	}
}

// snapshot returns detached copy of the object. Kalman filter is not shared with the copy.
func (object *TrackedObject) snapshot() TrackedObject {
	cp := *object
	cp.kf = nil
	cp.track = make([]Point, len(object.track))
	copy(cp.track, object.track)
	return cp
}

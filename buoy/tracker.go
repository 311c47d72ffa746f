package buoy

import (
	"sync"

	"go.uber.org/zap"
)

// Tracker reconciles per-frame detections with buoys seen in previous frames.
// Candidates and confirmed objects share single storage ordered by creation time, and
// the State tag tells them apart. So an object can never be in both sets.
type Tracker struct {
	mu sync.Mutex
	// Main storage (insertion order)
	objects []*TrackedObject
	// Identifier for the next created object
	nextID    int
	cfg       Config
	logger    *zap.Logger
	observers []Observer
}

// NewTrackerDefault creates default instance of Tracker
func NewTrackerDefault() *Tracker {
	return NewTracker()
}

// NewTracker creates new instance of Tracker
func NewTracker(options ...Option) *Tracker {
	tracker := &Tracker{
		objects: make([]*TrackedObject, 0),
		nextID:  1,
		cfg:     DefaultConfig(),
		logger:  zap.NewNop(),
	}
	for _, option := range options {
		option(tracker)
	}
	return tracker
}

// Config returns tracker's configuration
func (tracker *Tracker) Config() Config {
	return tracker.cfg
}

// ProcessFrame runs Update and AgeAndPrune as one step and returns the resulting state
func (tracker *Tracker) ProcessFrame(detections []Detection) Snapshot {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.update(detections)
	tracker.ageAndPrune()
	return tracker.snapshot()
}

// Update matches detections of a single frame against tracked objects.
// Matching is greedy: every detection (in input order) goes to the first matching candidate and
// to the first matching confirmed object (in creation order). Detection which matched nothing
// becomes a new candidate. ID of every detection is set to the identifier of the object it ended up with.
// Smoothed centers of already tracked objects are predicted once before matching, so objects missed in
// this frame keep moving along their estimated velocity.
func (tracker *Tracker) Update(detections []Detection) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.update(detections)
}

// AgeAndPrune must be called once per frame after Update. It ages every object,
// promotes candidates seen often enough and evicts objects not seen for too long.
func (tracker *Tracker) AgeAndPrune() {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.ageAndPrune()
}

func (tracker *Tracker) update(detections []Detection) {
	for _, object := range tracker.objects {
		object.predict()
	}
	for i := range detections {
		detection := &detections[i]
		found := false
		if candidate := tracker.firstMatch(detection.Center, StateCandidate); candidate != nil {
			tracker.match(candidate, *detection)
			detection.ID = candidate.ID
			found = true
		}
		if confirmed := tracker.firstMatch(detection.Center, StateConfirmed); confirmed != nil {
			tracker.match(confirmed, *detection)
			detection.ID = confirmed.ID
			found = true
		}
		if !found {
			object := tracker.register(*detection)
			detection.ID = object.ID
		}
	}
}

func (tracker *Tracker) firstMatch(center Point, state State) *TrackedObject {
	for _, object := range tracker.objects {
		if object.State != state {
			continue
		}
		if withinAxes(object.Center, center, tracker.cfg.MatchDistance) {
			return object
		}
	}
	return nil
}

func (tracker *Tracker) match(object *TrackedObject, detection Detection) {
	object.SeenCount += tracker.cfg.SeenIncrement
	object.LastSeen += tracker.cfg.LastSeenIncrement
	err := object.observe(detection)
	if err != nil {
		tracker.logger.Warn("smoothing failed, using raw center", zap.Int("id", object.ID), zap.Error(err))
	}
}

func (tracker *Tracker) register(detection Detection) *TrackedObject {
	object := newTrackedObject(tracker.nextID, detection, tracker.cfg.InitialLastSeen, tracker.cfg.MaxTrackLen)
	tracker.nextID++
	tracker.objects = append(tracker.objects, object)
	tracker.logger.Debug("candidate created",
		zap.Int("id", object.ID),
		zap.Int("x", object.Center.X),
		zap.Int("y", object.Center.Y),
		zap.Int("radius", object.Radius),
	)
	tracker.notify(func(observer Observer, snapshot TrackedObject) { observer.ObjectCreated(snapshot) }, object)
	return object
}

func (tracker *Tracker) ageAndPrune() {
	kept := tracker.objects[:0]
	for _, object := range tracker.objects {
		object.LastSeen--
		if object.State == StateCandidate && object.SeenCount >= tracker.cfg.PromotionThreshold {
			object.State = StateConfirmed
			tracker.logger.Debug("candidate promoted", zap.Int("id", object.ID), zap.Int("seen_count", object.SeenCount))
			tracker.notify(func(observer Observer, snapshot TrackedObject) { observer.ObjectPromoted(snapshot) }, object)
		}
		if object.LastSeen < tracker.cfg.EvictionThreshold {
			tracker.logger.Debug("object evicted", zap.Int("id", object.ID), zap.Stringer("state", object.State))
			tracker.notify(func(observer Observer, snapshot TrackedObject) { observer.ObjectEvicted(snapshot) }, object)
			continue
		}
		kept = append(kept, object)
	}
	// Let evicted objects be garbage collected
	for i := len(kept); i < len(tracker.objects); i++ {
		tracker.objects[i] = nil
	}
	tracker.objects = kept
}

func (tracker *Tracker) notify(call func(Observer, TrackedObject), object *TrackedObject) {
	if len(tracker.observers) == 0 {
		return
	}
	snapshot := object.snapshot()
	for _, observer := range tracker.observers {
		call(observer, snapshot)
	}
}

// Candidates returns copies of objects which are not confirmed yet
func (tracker *Tracker) Candidates() []TrackedObject {
	return tracker.collect(func(object *TrackedObject) bool { return object.State == StateCandidate })
}

// Confirmed returns copies of confirmed objects
func (tracker *Tracker) Confirmed() []TrackedObject {
	return tracker.collect(func(object *TrackedObject) bool { return object.State == StateConfirmed })
}

// Objects returns copies of all tracked objects in creation order
func (tracker *Tracker) Objects() []TrackedObject {
	return tracker.collect(func(object *TrackedObject) bool { return true })
}

func (tracker *Tracker) collect(filter func(*TrackedObject) bool) []TrackedObject {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	result := make([]TrackedObject, 0, len(tracker.objects))
	for _, object := range tracker.objects {
		if filter(object) {
			result = append(result, object.snapshot())
		}
	}
	return result
}

// Snapshot is a consistent view of the tracker taken under a single lock
type Snapshot struct {
	Candidates []TrackedObject
	Confirmed  []TrackedObject
}

// Snapshot returns copies of candidates and confirmed objects (creation order) from the same frame
func (tracker *Tracker) Snapshot() Snapshot {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.snapshot()
}

func (tracker *Tracker) snapshot() Snapshot {
	snapshot := Snapshot{
		Candidates: make([]TrackedObject, 0, len(tracker.objects)),
		Confirmed:  make([]TrackedObject, 0, len(tracker.objects)),
	}
	for _, object := range tracker.objects {
		if object.State == StateConfirmed {
			snapshot.Confirmed = append(snapshot.Confirmed, object.snapshot())
		} else {
			snapshot.Candidates = append(snapshot.Candidates, object.snapshot())
		}
	}
	return snapshot
}

// Len returns number of candidates and confirmed objects
func (tracker *Tracker) Len() (candidates, confirmed int) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	for _, object := range tracker.objects {
		if object.State == StateConfirmed {
			confirmed++
		} else {
			candidates++
		}
	}
	return candidates, confirmed
}

// NextID returns identifier which will be assigned to the next created object
func (tracker *Tracker) NextID() int {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.nextID
}

package buoy

// Observer is notified about lifecycle transitions of tracked objects.
// Calls are made synchronously while tracker's lock is held, so implementations must not call back into the tracker.
// Passed objects are snapshots.
type Observer interface {
	ObjectCreated(object TrackedObject)
	ObjectPromoted(object TrackedObject)
	ObjectEvicted(object TrackedObject)
}

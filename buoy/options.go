package buoy

import "go.uber.org/zap"

// Config holds tunable parameters of Tracker
type Config struct {
	// Per-axis match distance in pixels. Default 25
	MatchDistance int
	// Seen count needed for candidate to become confirmed. Default 2
	PromotionThreshold int
	// Object is evicted when its LastSeen drops below this value. Default 0
	EvictionThreshold int
	// LastSeen of a newly created object. Default 2
	InitialLastSeen int
	// Added to SeenCount on every match. Default 2
	SeenIncrement int
	// Added to LastSeen on every match. Default 6
	LastSeenIncrement int
	// Max number of points kept in object's track. Default 150
	MaxTrackLen int
}

// DefaultConfig returns configuration with default values
func DefaultConfig() Config {
	return Config{
		MatchDistance:      25,
		PromotionThreshold: 2,
		EvictionThreshold:  0,
		InitialLastSeen:    2,
		SeenIncrement:      2,
		LastSeenIncrement:  6,
		MaxTrackLen:        150,
	}
}

// Option configures Tracker
type Option func(*Tracker)

// WithConfig replaces whole configuration
func WithConfig(cfg Config) Option {
	return func(tracker *Tracker) {
		tracker.cfg = cfg
	}
}

// WithMatchDistance sets per-axis match distance
func WithMatchDistance(distance int) Option {
	return func(tracker *Tracker) {
		tracker.cfg.MatchDistance = distance
	}
}

// WithPromotionThreshold sets seen count needed for promotion
func WithPromotionThreshold(threshold int) Option {
	return func(tracker *Tracker) {
		tracker.cfg.PromotionThreshold = threshold
	}
}

// WithEvictionThreshold sets last seen value below which object is evicted
func WithEvictionThreshold(threshold int) Option {
	return func(tracker *Tracker) {
		tracker.cfg.EvictionThreshold = threshold
	}
}

// WithLogger sets logger. Default is no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(tracker *Tracker) {
		if logger != nil {
			tracker.logger = logger
		}
	}
}

// WithObserver registers lifecycle observer. Could be called several times
func WithObserver(observer Observer) Option {
	return func(tracker *Tracker) {
		if observer != nil {
			tracker.observers = append(tracker.observers, observer)
		}
	}
}

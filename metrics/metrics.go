// Package metrics exposes tracker and pipeline statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LdDl/buoy-go/buoy"
)

const namespace = "buoytrack"

// Collector implements buoy.Observer and pipeline.Recorder
type Collector struct {
	registry *prometheus.Registry

	objectsCreated  prometheus.Counter
	objectsPromoted prometheus.Counter
	objectsEvicted  *prometheus.CounterVec
	framesProcessed prometheus.Counter
	framesSkipped   prometheus.Counter
	detections      prometheus.Counter
	candidates      prometheus.Gauge
	confirmed       prometheus.Gauge
	frameDuration   prometheus.Histogram
}

// New creates collector with its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		objectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_created_total",
			Help:      "Total number of tracked objects created from unmatched detections",
		}),
		objectsPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_promoted_total",
			Help:      "Total number of candidates promoted to confirmed",
		}),
		objectsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_evicted_total",
			Help:      "Total number of evicted objects",
		}, []string{"state"}),
		framesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_processed_total",
			Help:      "Total number of frames passed to tracker",
		}),
		framesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_skipped_total",
			Help:      "Total number of frames skipped because detection failed",
		}),
		detections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Total number of raw detections",
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Number of candidates after the last frame",
		}),
		confirmed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "confirmed",
			Help:      "Number of confirmed objects after the last frame",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent on detection and tracking of a frame",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	c.registry.MustRegister(
		c.objectsCreated,
		c.objectsPromoted,
		c.objectsEvicted,
		c.framesProcessed,
		c.framesSkipped,
		c.detections,
		c.candidates,
		c.confirmed,
		c.frameDuration,
	)
	return c
}

// Registry returns underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves metrics in Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObjectCreated(object buoy.TrackedObject) {
	c.objectsCreated.Inc()
}

func (c *Collector) ObjectPromoted(object buoy.TrackedObject) {
	c.objectsPromoted.Inc()
}

func (c *Collector) ObjectEvicted(object buoy.TrackedObject) {
	c.objectsEvicted.WithLabelValues(object.State.String()).Inc()
}

func (c *Collector) FrameProcessed(detections, candidates, confirmed int, took time.Duration) {
	c.framesProcessed.Inc()
	c.detections.Add(float64(detections))
	c.candidates.Set(float64(candidates))
	c.confirmed.Set(float64(confirmed))
	c.frameDuration.Observe(took.Seconds())
}

func (c *Collector) FrameSkipped() {
	c.framesSkipped.Inc()
}

// Package metrics exposes render and hit-test counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeaturesRendered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoview_features_rendered_total",
		Help: "Features converted to screen space",
	}, []string{"layer"})
	RendersInterrupted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoview_renders_interrupted_total",
		Help: "Layer renders stopped before completion",
	}, []string{"layer"})
	PointsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoview_points_dropped_total",
		Help: "Vertices that failed to project and were skipped",
	})
	HitTests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoview_hit_tests_total",
		Help: "Point hit tests by outcome",
	}, []string{"result"})
	RenderDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoview_layer_render_duration_ms",
		Help:    "Layer render duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
)

func init() {
	prometheus.MustRegister(FeaturesRendered)
	prometheus.MustRegister(RendersInterrupted)
	prometheus.MustRegister(PointsDropped)
	prometheus.MustRegister(HitTests)
	prometheus.MustRegister(RenderDurationMs)
}

// Handler serves the registered metrics.
func Handler() http.Handler { return promhttp.Handler() }

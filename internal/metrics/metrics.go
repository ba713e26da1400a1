// Package metrics exposes Prometheus counters for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Signups counts successful account creations.
	Signups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshot_signups_total",
		Help: "Number of users created.",
	})

	// Logins counts token requests by outcome
	// ("success", "failure" or "rate_limited").
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeshot_logins_total",
		Help: "Number of token requests by outcome.",
	}, []string{"outcome"})

	// Renders counts image requests by outcome
	// ("success", "invalid", "rate_limited" or "failure").
	Renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeshot_renders_total",
		Help: "Number of image render requests by outcome.",
	}, []string{"outcome"})

	// RenderDuration observes the time spent waiting on the renderer.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codeshot_render_duration_seconds",
		Help:    "Time spent on outbound renderer calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 9),
	})

	// ImagesPruned counts images removed by the retention janitor.
	ImagesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeshot_images_pruned_total",
		Help: "Number of stored images deleted after their retention period.",
	})
)

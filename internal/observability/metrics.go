package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatcher metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_request_duration_seconds",
			Help:    "Request handling latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"store", "action", "code"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_requests_total",
			Help: "Total number of requests dispatched",
		},
		[]string{"store", "action", "code"},
	)

	ConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_connections_active",
			Help: "Number of open client connections",
		},
		[]string{"store"},
	)

	FramesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_frames_rejected_total",
			Help: "Total number of malformed or oversized frames",
		},
		[]string{"store"},
	)

	// Session metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of sessions that have not expired",
		},
	)

	SessionsExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_expired_total",
			Help: "Total number of session expirations",
		},
		[]string{"reason"},
	)

	// Catalog metrics
	ItemsListed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_items_listed_total",
			Help: "Total number of items added to the catalog",
		},
		[]string{"category"},
	)
)

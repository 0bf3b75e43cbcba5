// Package metrics holds the Prometheus collectors for the engine.
// Using promauto automatically registers metrics with the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngestedTotal counts events accepted by the ingestion pipeline.
	EventsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beaconview_events_ingested_total",
			Help: "Total number of events ingested, by event type",
		},
		[]string{"type"},
	)

	// EventsDroppedTotal counts malformed beacons silently discarded.
	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconview_events_dropped_total",
			Help: "Total number of malformed beacons discarded",
		},
	)

	// VisitorsCreatedTotal counts new visitor identities synthesized.
	VisitorsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconview_visitors_created_total",
			Help: "Total number of new visitor identities created",
		},
	)

	// VisitorsIdentifiedTotal counts anonymous visitors bound to leads.
	VisitorsIdentifiedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconview_visitors_identified_total",
			Help: "Total number of visitors bound to known leads",
		},
	)

	// LinkClicksTotal counts tracked-link resolutions.
	LinkClicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconview_link_clicks_total",
			Help: "Total number of tracked-link redirects resolved",
		},
	)

	// EventLogEvictionsTotal counts events lost to FIFO eviction.
	EventLogEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconview_event_log_evictions_total",
			Help: "Total number of events evicted from the bounded log",
		},
	)

	// StreamSubscribers tracks currently connected push subscribers.
	StreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beaconview_stream_subscribers",
			Help: "Number of connected push subscribers",
		},
	)

	// SubscribersDroppedTotal counts subscribers removed on write failure.
	SubscribersDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconview_stream_subscribers_dropped_total",
			Help: "Total number of push subscribers dropped on write failure",
		},
	)

	// GeoLookupFailuresTotal counts degraded geolocation fallbacks.
	GeoLookupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconview_geo_lookup_failures_total",
			Help: "Total number of geolocation lookups that fell back to Unknown",
		},
	)

	// SnapshotFlushesTotal counts persistence flush outcomes.
	SnapshotFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beaconview_snapshot_flushes_total",
			Help: "Total number of snapshot flushes, by outcome",
		},
		[]string{"outcome"},
	)
)

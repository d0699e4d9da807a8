package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// usersTotal counts ingested users by result
	usersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geolife_ingest_users_total",
		Help: "Users processed by ingestion, by result",
	}, []string{"result"}) // "ok" or "failed"

	activitiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geolife_ingest_activities_total",
		Help: "Activities committed by ingestion",
	})

	trackPointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geolife_ingest_track_points_total",
		Help: "Track points committed by ingestion",
	})

	discardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geolife_ingest_discarded_activities_total",
		Help: "Trajectories not kept as activities, by reason",
	}, []string{"reason"})

	userDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geolife_ingest_user_duration_seconds",
		Help:    "Time to parse, assemble and write one user",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})
)

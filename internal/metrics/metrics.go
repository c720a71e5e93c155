package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ContestStarts      *prometheus.CounterVec
	ContestEnds        *prometheus.CounterVec
	ContestsCompleted  prometheus.Counter
	EndLatency         prometheus.Histogram
	PracticeSubmission *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
}

// New registers the service metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ContestStarts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csarena_contest_starts_total",
			Help: "Contest start requests by outcome",
		}, []string{"result"}),
		ContestEnds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csarena_contest_ends_total",
			Help: "Contest end requests by outcome",
		}, []string{"result"}),
		ContestsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "csarena_contests_completed_total",
			Help: "Contests moved to COMPLETED",
		}),
		EndLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "csarena_contest_end_seconds",
			Help:    "Duration of the contest end transaction",
			Buckets: prometheus.DefBuckets,
		}),
		PracticeSubmission: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csarena_practice_submissions_total",
			Help: "Practice submissions by verdict",
		}, []string{"status"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "csarena_events_published_total",
			Help: "Live events by type and delivery status",
		}, []string{"type", "status"}),
	}
}

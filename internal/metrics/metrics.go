// Package metrics exposes prometheus collectors for the review pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	recomputesTotal   *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	votesTotal        *prometheus.CounterVec
	likesTotal        *prometheus.CounterVec
	uploadsTotal      *prometheus.CounterVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		recomputesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodlog_stats_recomputes_total",
				Help: "Total number of restaurant statistics recomputations",
			},
			[]string{"kind", "status"}, // kind: rolling, daily
		),
		recomputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foodlog_stats_recompute_duration_seconds",
				Help:    "Time taken to recompute restaurant statistics",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"kind"},
		),
		votesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodlog_votes_total",
				Help: "Total number of review votes by action",
			},
			[]string{"action", "vote_type"}, // action: cast, change, withdraw
		),
		likesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodlog_likes_total",
				Help: "Total number of review likes",
			},
			[]string{"status"},
		),
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodlog_image_uploads_total",
				Help: "Total number of image uploads by backend",
			},
			[]string{"backend"}, // backend: object, docstore
		),
	}

	for _, c := range []prometheus.Collector{
		m.recomputesTotal, m.recomputeDuration, m.votesTotal, m.likesTotal, m.uploadsTotal,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRecompute records one statistics recomputation.
func (m *Metrics) ObserveRecompute(kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.recomputesTotal.WithLabelValues(kind, status(err)).Inc()
	m.recomputeDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// Vote counts a vote action.
func (m *Metrics) Vote(action, voteType string) {
	if m == nil {
		return
	}
	m.votesTotal.WithLabelValues(action, voteType).Inc()
}

// Like counts a like attempt.
func (m *Metrics) Like(err error) {
	if m == nil {
		return
	}
	m.likesTotal.WithLabelValues(status(err)).Inc()
}

// Upload counts a stored image by backend.
func (m *Metrics) Upload(backend string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(backend).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

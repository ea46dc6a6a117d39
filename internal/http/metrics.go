package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"portfolio/internal/core"
)

// Contact and OAuth callback outcomes used as metric labels
const (
	StatusAccepted       = "accepted"
	StatusDuplicate      = "duplicate"
	StatusInvalid        = "invalid"
	StatusSuccess        = "success"
	StatusInvalidState   = "invalid_state"
	StatusMissingCode    = "missing_code"
	StatusExchangeFailed = "exchange_failed"
)

type Metrics struct {
	registry *prometheus.Registry

	NowPlayingTotal         *prometheus.CounterVec
	UpstreamErrorsTotal     *prometheus.CounterVec
	ContactSubmissionsTotal *prometheus.CounterVec
	OAuthCallbacksTotal     *prometheus.CounterVec
	RequestDuration         *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a registry owned by the returned
// Metrics, so several servers can coexist in one process.
func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		NowPlayingTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_now_playing_total",
				Help: "Total number of now-playing resolutions by mode",
			},
			[]string{"mode"},
		),
		UpstreamErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_upstream_errors_total",
				Help: "Total number of failed Spotify API calls",
			},
			[]string{"call"},
		),
		ContactSubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_contact_submissions_total",
				Help: "Total number of contact form submissions",
			},
			[]string{"status"},
		),
		OAuthCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_oauth_callbacks_total",
				Help: "Total number of OAuth callbacks handled",
			},
			[]string{"status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_request_duration_seconds",
				Help:    "Time spent serving requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	metrics.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NowPlayingTotal,
		metrics.UpstreamErrorsTotal,
		metrics.ContactSubmissionsTotal,
		metrics.OAuthCallbacksTotal,
		metrics.RequestDuration,
	)

	return metrics
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordNowPlaying(mode core.PlaybackMode) {
	m.NowPlayingTotal.WithLabelValues(string(mode)).Inc()
}

// RecordUpstreamError satisfies core.UpstreamRecorder.
func (m *Metrics) RecordUpstreamError(call string) {
	m.UpstreamErrorsTotal.WithLabelValues(call).Inc()
}

func (m *Metrics) RecordContact(status string) {
	m.ContactSubmissionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordOAuthCallback(status string) {
	m.OAuthCallbacksTotal.WithLabelValues(status).Inc()
}

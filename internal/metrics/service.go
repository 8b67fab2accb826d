package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchpoint_registrations_total",
			Help: "The total number of successful event registrations.",
		}),
		RegistrationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchpoint_registration_conflicts_total",
			Help: "The total number of registrations rejected for capacity or uniqueness.",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchpoint_settlements_total",
			Help: "The total number of event settlements completed.",
		}),
		PointsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchpoint_score_points_total",
			Help: "The total number of match points recorded by the score engine.",
		}),
		MatchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchpoint_matches_completed_total",
			Help: "The total number of matches played to completion.",
		}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchpoint_settlement_duration_seconds",
			Help:    "The duration of individual event settlements.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchpoint_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchpoint_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchpoint_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Registrations,
		s.RegistrationConflicts,
		s.Settlements,
		s.PointsRecorded,
		s.MatchesCompleted,
		s.SettlementDuration,
		s.NotifSent,
		s.NotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRegistrations() {
	s.Registrations.Inc()
}

func (s *Service) IncRegistrationConflicts() {
	s.RegistrationConflicts.Inc()
}

func (s *Service) IncSettlements() {
	s.Settlements.Inc()
}

func (s *Service) IncPointsRecorded() {
	s.PointsRecorded.Inc()
}

func (s *Service) IncMatchesCompleted() {
	s.MatchesCompleted.Inc()
}

func (s *Service) ObserveSettlementDuration(duration float64) {
	s.SettlementDuration.Observe(duration)
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}

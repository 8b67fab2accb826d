package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	Registrations         prometheus.Counter
	RegistrationConflicts prometheus.Counter
	Settlements           prometheus.Counter
	PointsRecorded        prometheus.Counter
	MatchesCompleted      prometheus.Counter
	SettlementDuration    prometheus.Histogram
	NotifSent             prometheus.Counter
	NotifFailed           prometheus.Counter
	StartupTimeSeconds    prometheus.Gauge
}

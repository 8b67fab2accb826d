package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRegistrations()
	IncRegistrationConflicts()
	IncSettlements()
	IncPointsRecorded()
	IncMatchesCompleted()
	ObserveSettlementDuration(duration float64)
	IncNotifSent()
	IncNotifFailed()
	SetStartupTime(duration float64)
}

// MetricsStore is the database-backed counter store surfaced on /stats. It
// survives restarts, unlike the in-process Prometheus registry.
type MetricsStore interface {
	Increment(key string)
	GetAll() (map[string]int, error)
}

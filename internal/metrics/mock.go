package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                    sync.Mutex
	registrations         int
	registrationConflicts int
	settlements           int
	pointsRecorded        int
	matchesCompleted      int
	settlementDurations   []float64
	notifSent             int
	notifFailed           int
	startupTime           float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		settlementDurations: make([]float64, 0),
	}
}

func (m *Mock) IncRegistrations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations++
}

func (m *Mock) IncRegistrationConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationConflicts++
}

func (m *Mock) IncSettlements() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements++
}

func (m *Mock) IncPointsRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointsRecorded++
}

func (m *Mock) IncMatchesCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCompleted++
}

func (m *Mock) ObserveSettlementDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlementDurations = append(m.settlementDurations, duration)
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Registrations returns the number of times IncRegistrations was called.
func (m *Mock) Registrations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrations
}

// Settlements returns the number of times IncSettlements was called.
func (m *Mock) Settlements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settlements
}

// PointsRecorded returns the number of times IncPointsRecorded was called.
func (m *Mock) PointsRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pointsRecorded
}

// MatchesCompleted returns the number of times IncMatchesCompleted was called.
func (m *Mock) MatchesCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCompleted
}

// NotifSent returns the number of times IncNotifSent was called.
func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

// NotifFailed returns the number of times IncNotifFailed was called.
func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}

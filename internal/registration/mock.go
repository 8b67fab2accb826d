package registration

import (
	"database/sql"
	"sync"
)

// MockManager is a mock implementation of the Manager interface for testing.
type MockManager struct {
	mu sync.Mutex

	RegisterFunc              func(userID, eventID string) (*Registration, error)
	CancelFunc                func(userID, eventID string) error
	ApproveFunc               func(userID, eventID string) error
	RejectFunc                func(userID, eventID string) error
	SignInFunc                func(userID, eventID, method string) error
	SettleFunc                func(eventID string, results map[string]Result) error
	CancelAllActiveFunc       func(eventID string) (int, error)
	CancelAllActiveWithinFunc func(tx *sql.Tx, eventID string) (int, error)
	GetFunc                   func(userID, eventID string) (*Registration, error)
	RosterFunc                func(eventID string, status SignupStatus) ([]Registration, error)
	ActiveCountFunc           func(eventID string) (int, error)
	StatsFunc                 func(eventID string) (*EventStats, error)

	RegisterCalls []struct{ UserID, EventID string }
	CancelCalls   []struct{ UserID, EventID string }
	SettleCalls   []struct {
		EventID string
		Results map[string]Result
	}
	CancelAllActiveCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *MockManager {
	return &MockManager{}
}

func (m *MockManager) Register(userID, eventID string) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegisterCalls = append(m.RegisterCalls, struct{ UserID, EventID string }{userID, eventID})
	if m.RegisterFunc != nil {
		return m.RegisterFunc(userID, eventID)
	}
	return &Registration{UserID: userID, EventID: eventID, Status: StatusApproved}, nil
}

func (m *MockManager) Cancel(userID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls = append(m.CancelCalls, struct{ UserID, EventID string }{userID, eventID})
	if m.CancelFunc != nil {
		return m.CancelFunc(userID, eventID)
	}
	return nil
}

func (m *MockManager) Approve(userID, eventID string) error {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(userID, eventID)
	}
	return nil
}

func (m *MockManager) Reject(userID, eventID string) error {
	if m.RejectFunc != nil {
		return m.RejectFunc(userID, eventID)
	}
	return nil
}

func (m *MockManager) SignIn(userID, eventID, method string) error {
	if m.SignInFunc != nil {
		return m.SignInFunc(userID, eventID, method)
	}
	return nil
}

func (m *MockManager) Settle(eventID string, results map[string]Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettleCalls = append(m.SettleCalls, struct {
		EventID string
		Results map[string]Result
	}{eventID, results})
	if m.SettleFunc != nil {
		return m.SettleFunc(eventID, results)
	}
	return nil
}

func (m *MockManager) CancelAllActive(eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelAllActiveCalls = append(m.CancelAllActiveCalls, eventID)
	if m.CancelAllActiveFunc != nil {
		return m.CancelAllActiveFunc(eventID)
	}
	return 0, nil
}

func (m *MockManager) CancelAllActiveWithin(tx *sql.Tx, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelAllActiveCalls = append(m.CancelAllActiveCalls, eventID)
	if m.CancelAllActiveWithinFunc != nil {
		return m.CancelAllActiveWithinFunc(tx, eventID)
	}
	return 0, nil
}

func (m *MockManager) Get(userID, eventID string) (*Registration, error) {
	if m.GetFunc != nil {
		return m.GetFunc(userID, eventID)
	}
	return &Registration{UserID: userID, EventID: eventID, Status: StatusApproved}, nil
}

func (m *MockManager) Roster(eventID string, status SignupStatus) ([]Registration, error) {
	if m.RosterFunc != nil {
		return m.RosterFunc(eventID, status)
	}
	return []Registration{}, nil
}

func (m *MockManager) ActiveCount(eventID string) (int, error) {
	if m.ActiveCountFunc != nil {
		return m.ActiveCountFunc(eventID)
	}
	return 0, nil
}

func (m *MockManager) Stats(eventID string) (*EventStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(eventID)
	}
	return &EventStats{}, nil
}

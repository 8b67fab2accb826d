package ledger

import (
	"database/sql"
	"sync"
)

// MockLedger is a mock implementation of the Ledger interface for testing.
// It keeps an in-memory balance per user so sequences of credits and debits
// behave sensibly without a database.
type MockLedger struct {
	mu sync.Mutex

	CreditFunc  func(userID string, amount int64, reason string, ref CauseRef) (int64, error)
	DebitFunc   func(userID string, amount int64, reason string, ref CauseRef) (int64, error)
	BalanceFunc func(userID string) (int64, error)
	HistoryFunc func(userID string, limit, offset int) ([]PointsRecord, error)

	Balances    map[string]int64
	CreditCalls []PointsRecord
	DebitCalls  []PointsRecord
}

// NewMock creates a new mock instance.
func NewMock() *MockLedger {
	return &MockLedger{Balances: make(map[string]int64)}
}

func (m *MockLedger) Credit(userID string, amount int64, reason string, ref CauseRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreditCalls = append(m.CreditCalls, PointsRecord{
		UserID: userID, Amount: amount, Reason: reason,
		EventID: ref.EventID, RegistrationID: ref.RegistrationID,
	})
	if m.CreditFunc != nil {
		return m.CreditFunc(userID, amount, reason, ref)
	}
	m.Balances[userID] += amount
	return m.Balances[userID], nil
}

func (m *MockLedger) Debit(userID string, amount int64, reason string, ref CauseRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DebitCalls = append(m.DebitCalls, PointsRecord{
		UserID: userID, Amount: -amount, Reason: reason,
		EventID: ref.EventID, RegistrationID: ref.RegistrationID,
	})
	if m.DebitFunc != nil {
		return m.DebitFunc(userID, amount, reason, ref)
	}
	m.Balances[userID] -= amount
	return m.Balances[userID], nil
}

func (m *MockLedger) CreditWithin(userID string, amount int64, reason string, ref CauseRef, fn func(*sql.Tx) error) (int64, error) {
	if fn != nil {
		if err := fn(nil); err != nil {
			return 0, err
		}
	}
	return m.Credit(userID, amount, reason, ref)
}

func (m *MockLedger) DebitWithin(userID string, amount int64, reason string, ref CauseRef, fn func(*sql.Tx) error) (int64, error) {
	if fn != nil {
		if err := fn(nil); err != nil {
			return 0, err
		}
	}
	return m.Debit(userID, amount, reason, ref)
}

func (m *MockLedger) ApplyAll(entries []Entry, fn func(*sql.Tx) error) error {
	if fn != nil {
		if err := fn(nil); err != nil {
			return err
		}
	}
	for _, e := range entries {
		var err error
		if e.Amount >= 0 {
			_, err = m.Credit(e.UserID, e.Amount, e.Reason, e.Ref)
		} else {
			_, err = m.Debit(e.UserID, -e.Amount, e.Reason, e.Ref)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *MockLedger) Balance(userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BalanceFunc != nil {
		return m.BalanceFunc(userID)
	}
	return m.Balances[userID], nil
}

func (m *MockLedger) History(userID string, limit, offset int) ([]PointsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HistoryFunc != nil {
		return m.HistoryFunc(userID, limit, offset)
	}
	return []PointsRecord{}, nil
}

package event

import (
	"database/sql"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It keeps events in memory so lifecycle sequences behave sensibly without a
// database.
type MockStore struct {
	mu sync.Mutex

	CreateFunc  func(input NewEvent) (*Event, error)
	GetFunc     func(eventID string) (*Event, error)
	ListFunc    func(status Status) ([]Event, error)
	PublishFunc func(eventID string) (*Event, error)
	StartFunc   func(eventID string) (*Event, error)
	EndFunc     func(eventID string) (*Event, error)
	CancelFunc  func(eventID string) (*Event, error)

	Events map[string]*Event
}

// NewMockStore creates a new mock instance.
func NewMockStore() *MockStore {
	return &MockStore{Events: make(map[string]*Event)}
}

func (m *MockStore) Create(input NewEvent) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(input)
	}
	ev := &Event{
		ID:               "mock-event",
		Title:            input.Title,
		Category:         input.Category,
		StartTime:        input.StartTime,
		EndTime:          input.EndTime,
		MaxParticipants:  input.MaxParticipants,
		RequiresApproval: input.RequiresApproval,
		Status:           StatusDraft,
	}
	m.Events[ev.ID] = ev
	return ev, nil
}

func (m *MockStore) Get(eventID string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(eventID)
	}
	if ev, ok := m.Events[eventID]; ok {
		return ev, nil
	}
	return &Event{ID: eventID, Status: StatusDraft}, nil
}

func (m *MockStore) List(status Status) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListFunc != nil {
		return m.ListFunc(status)
	}
	events := []Event{}
	for _, ev := range m.Events {
		if status == "" || ev.Status == status {
			events = append(events, *ev)
		}
	}
	return events, nil
}

func (m *MockStore) Publish(eventID string) (*Event, error) {
	return m.setStatus(eventID, StatusPublished, m.PublishFunc)
}

func (m *MockStore) Start(eventID string) (*Event, error) {
	return m.setStatus(eventID, StatusOngoing, m.StartFunc)
}

func (m *MockStore) End(eventID string) (*Event, error) {
	return m.setStatus(eventID, StatusEnded, m.EndFunc)
}

func (m *MockStore) Cancel(eventID string) (*Event, error) {
	return m.setStatus(eventID, StatusCanceled, m.CancelFunc)
}

func (m *MockStore) CancelWithin(eventID string, fn func(*sql.Tx) error) (*Event, error) {
	if fn != nil {
		if err := fn(nil); err != nil {
			return nil, err
		}
	}
	return m.setStatus(eventID, StatusCanceled, m.CancelFunc)
}

func (m *MockStore) setStatus(eventID string, status Status, fn func(string) (*Event, error)) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn != nil {
		return fn(eventID)
	}
	ev, ok := m.Events[eventID]
	if !ok {
		ev = &Event{ID: eventID}
		m.Events[eventID] = ev
	}
	ev.Status = status
	return ev, nil
}

package scoring

import "sync"

// MockEngine is a mock implementation of the Engine interface for testing.
type MockEngine struct {
	mu sync.Mutex

	CreateMatchFunc func(eventID, name string, format Format, team1, team2 []Player, scheduledTime int64) (*Match, error)
	StartMatchFunc  func(matchID string) (*Match, error)
	RecordPointFunc func(matchID string, winner Side) (*Match, *MatchResult, error)
	AbandonFunc     func(matchID, reason string) (*Match, error)
	GetMatchFunc    func(matchID string) (*Match, error)
	ListByEventFunc func(eventID string) ([]*Match, error)

	CreateMatchCalls []string
	StartMatchCalls  []string
	RecordPointCalls []struct {
		MatchID string
		Winner  Side
	}
	AbandonCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *MockEngine {
	return &MockEngine{}
}

func (m *MockEngine) CreateMatch(eventID, name string, format Format, team1, team2 []Player, scheduledTime int64) (*Match, error) {
	m.mu.Lock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, eventID)
	m.mu.Unlock()
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(eventID, name, format, team1, team2, scheduledTime)
	}
	return &Match{ID: "mock-match", EventID: eventID, Name: name, Status: MatchScheduled, Format: format, Team1: team1, Team2: team2}, nil
}

func (m *MockEngine) StartMatch(matchID string) (*Match, error) {
	m.mu.Lock()
	m.StartMatchCalls = append(m.StartMatchCalls, matchID)
	m.mu.Unlock()
	if m.StartMatchFunc != nil {
		return m.StartMatchFunc(matchID)
	}
	return &Match{ID: matchID, Status: MatchLive, Score: NewScore(SideTeam1)}, nil
}

func (m *MockEngine) RecordPoint(matchID string, winner Side) (*Match, *MatchResult, error) {
	m.mu.Lock()
	m.RecordPointCalls = append(m.RecordPointCalls, struct {
		MatchID string
		Winner  Side
	}{matchID, winner})
	m.mu.Unlock()
	if m.RecordPointFunc != nil {
		return m.RecordPointFunc(matchID, winner)
	}
	return &Match{ID: matchID, Status: MatchLive}, nil, nil
}

func (m *MockEngine) Abandon(matchID, reason string) (*Match, error) {
	m.mu.Lock()
	m.AbandonCalls = append(m.AbandonCalls, matchID)
	m.mu.Unlock()
	if m.AbandonFunc != nil {
		return m.AbandonFunc(matchID, reason)
	}
	return &Match{ID: matchID, Status: MatchAbandoned, AbandonReason: reason}, nil
}

func (m *MockEngine) GetMatch(matchID string) (*Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(matchID)
	}
	return &Match{ID: matchID, Status: MatchScheduled}, nil
}

func (m *MockEngine) ListByEvent(eventID string) ([]*Match, error) {
	if m.ListByEventFunc != nil {
		return m.ListByEventFunc(eventID)
	}
	return []*Match{}, nil
}

package player

import "sync"

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	UpsertPlayerFunc  func(playerID, nickname string) error
	UpsertPlayersFunc func(players []Info) error
	GetPlayerFunc     func(playerID string) (*Info, error)
	IsKnownPlayerFunc func(playerID string) bool
	SoftDeleteFunc    func(playerID string) error
	LeaderboardFunc   func(limit int) ([]Info, error)

	UpsertPlayerCalls  []Info
	UpsertPlayersCalls [][]Info
	SoftDeleteCalls    []string
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

func (m *MockStore) UpsertPlayer(playerID, nickname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertPlayerCalls = append(m.UpsertPlayerCalls, Info{ID: playerID, Nickname: nickname})
	if m.UpsertPlayerFunc != nil {
		return m.UpsertPlayerFunc(playerID, nickname)
	}
	return nil
}

func (m *MockStore) UpsertPlayers(players []Info) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertPlayersCalls = append(m.UpsertPlayersCalls, players)
	if m.UpsertPlayersFunc != nil {
		return m.UpsertPlayersFunc(players)
	}
	return nil
}

func (m *MockStore) GetPlayer(playerID string) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(playerID)
	}
	return &Info{ID: playerID}, nil
}

func (m *MockStore) IsKnownPlayer(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IsKnownPlayerFunc != nil {
		return m.IsKnownPlayerFunc(playerID)
	}
	return true
}

func (m *MockStore) SoftDelete(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SoftDeleteCalls = append(m.SoftDeleteCalls, playerID)
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(playerID)
	}
	return nil
}

func (m *MockStore) Leaderboard(limit int) ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(limit)
	}
	return []Info{}, nil
}

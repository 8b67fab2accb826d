package notifier

import (
	"sync"

	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	SendEventPublishedFunc func(title string, startTime, endTime int64, dryRun bool) error
	SendMatchResultFunc    func(match *scoring.Match, result *scoring.MatchResult, dryRun bool) error
	SendEventSettledFunc   func(title string, standings []Standing, dryRun bool) error
	SendLeaderboardFunc    func(players []player.Info, dryRun bool) error

	// Call records
	SendEventPublishedCalls []string
	SendMatchResultCalls    []struct {
		Match  *scoring.Match
		Result *scoring.MatchResult
	}
	SendEventSettledCalls []struct {
		Title     string
		Standings []Standing
	}
	SendLeaderboardCalls [][]player.Info
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendEventPublishedCalls = nil
	m.SendMatchResultCalls = nil
	m.SendEventSettledCalls = nil
	m.SendLeaderboardCalls = nil
}

func (m *Mock) SendEventPublished(title string, startTime, endTime int64, dryRun bool) error {
	m.mu.Lock()
	m.SendEventPublishedCalls = append(m.SendEventPublishedCalls, title)
	m.mu.Unlock()
	if m.SendEventPublishedFunc != nil {
		return m.SendEventPublishedFunc(title, startTime, endTime, dryRun)
	}
	return nil
}

func (m *Mock) SendMatchResult(match *scoring.Match, result *scoring.MatchResult, dryRun bool) error {
	m.mu.Lock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, struct {
		Match  *scoring.Match
		Result *scoring.MatchResult
	}{match, result})
	m.mu.Unlock()
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(match, result, dryRun)
	}
	return nil
}

func (m *Mock) SendEventSettled(title string, standings []Standing, dryRun bool) error {
	m.mu.Lock()
	m.SendEventSettledCalls = append(m.SendEventSettledCalls, struct {
		Title     string
		Standings []Standing
	}{title, standings})
	m.mu.Unlock()
	if m.SendEventSettledFunc != nil {
		return m.SendEventSettledFunc(title, standings, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(players []player.Info, dryRun bool) error {
	m.mu.Lock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	m.mu.Unlock()
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(players, dryRun)
	}
	return nil
}

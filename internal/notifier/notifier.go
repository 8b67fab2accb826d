package notifier

import (
	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
// Sending is best-effort: the coordinator logs and counts failures but never
// propagates them.
type Notifier interface {
	// For newly published events open for registration
	SendEventPublished(title string, startTime, endTime int64, dryRun bool) error
	// For completed matches
	SendMatchResult(match *scoring.Match, result *scoring.MatchResult, dryRun bool) error
	// For settled events
	SendEventSettled(title string, standings []Standing, dryRun bool) error
	// For the points leaderboard
	SendLeaderboard(players []player.Info, dryRun bool) error
}

// Standing is one settled participant in an event summary, ordered by rank.
type Standing struct {
	Nickname string
	Points   int64
	Rank     int
}

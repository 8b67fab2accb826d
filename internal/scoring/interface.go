package scoring

// Engine drives match score state. Calls for the same match are serialized;
// different matches proceed fully in parallel.
type Engine interface {
	// CreateMatch schedules a match for an event.
	CreateMatch(eventID, name string, format Format, team1, team2 []Player, scheduledTime int64) (*Match, error)
	// StartMatch moves a scheduled match to live and opens the score.
	StartMatch(matchID string) (*Match, error)
	// RecordPoint applies one point for the winning side. When the point
	// concludes the match the returned MatchResult is non-nil (exactly once).
	RecordPoint(matchID string, winner Side) (*Match, *MatchResult, error)
	// Abandon terminally stops a live match without emitting a result.
	Abandon(matchID, reason string) (*Match, error)

	GetMatch(matchID string) (*Match, error)
	ListByEvent(eventID string) ([]*Match, error)
}

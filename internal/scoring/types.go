package scoring

import (
	"database/sql"

	"github.com/matchpoint-club/matchpoint/internal/apperror"
	"github.com/matchpoint-club/matchpoint/internal/keymutex"
)

// Side identifies one side of the net, singles or doubles.
type Side string

const (
	SideTeam1 Side = "team1"
	SideTeam2 Side = "team2"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideTeam1 {
		return SideTeam2
	}
	return SideTeam1
}

// Valid reports whether s is one of the two playable sides.
func (s Side) Valid() bool {
	return s == SideTeam1 || s == SideTeam2
}

// MatchStatus is the lifecycle state of a match. Score state mutates only
// while live; completed and abandoned are immutable.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
	MatchAbandoned MatchStatus = "abandoned"
)

// FinalSetRule selects how the deciding set resolves at 6-6. Standard sets
// always play a tie-break; formats differ only in the final set.
type FinalSetRule string

const (
	// FinalSetTiebreak plays a tie-break game at 6-6 in the deciding set.
	FinalSetTiebreak FinalSetRule = "tiebreak"
	// FinalSetAdvantage continues the deciding set until one side leads by
	// two games.
	FinalSetAdvantage FinalSetRule = "advantage"
)

// Format is the per-match scoring configuration.
type Format struct {
	BestOf   int          `json:"best_of"`
	FinalSet FinalSetRule `json:"final_set"`
}

// SetsToWin is the number of sets needed to take the match.
func (f Format) SetsToWin() int {
	return f.BestOf/2 + 1
}

// Validate rejects formats the engine cannot play.
func (f Format) Validate() error {
	if f.BestOf != 1 && f.BestOf != 3 && f.BestOf != 5 {
		return apperror.Wrap(apperror.ErrInvalidInput, "best_of must be 1, 3 or 5, got %d", f.BestOf)
	}
	if f.FinalSet != FinalSetTiebreak && f.FinalSet != FinalSetAdvantage {
		return apperror.Wrap(apperror.ErrInvalidInput, "final_set must be %q or %q", FinalSetTiebreak, FinalSetAdvantage)
	}
	return nil
}

// GameScore counts points won in the current game. In a regular game the
// counts translate to 0/15/30/40 with deuce and advantage; in a tie-break
// they are the numeric score.
type GameScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// TiebreakScore is the final numeric score of a played tie-break.
type TiebreakScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// SetScore is one set's game tally. Winner is set when the set is complete.
type SetScore struct {
	Team1Games int            `json:"team1_games"`
	Team2Games int            `json:"team2_games"`
	Tiebreak   *TiebreakScore `json:"tiebreak,omitempty"`
	Winner     Side           `json:"winner,omitempty"`
}

// Score is the full nested match score state: completed sets plus the
// in-progress set (the last element of Sets until the match has a winner).
type Score struct {
	Sets       []SetScore `json:"sets"`
	Game       GameScore  `json:"game"`
	InTiebreak bool       `json:"in_tiebreak"`
	Server     Side       `json:"server"`
	Winner     Side       `json:"winner,omitempty"`
}

// Player is one participant on a side.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Match is a single scheduled or played match belonging to one event.
type Match struct {
	ID            string      `json:"id"`
	EventID       string      `json:"event_id"`
	Name          string      `json:"name"`
	Status        MatchStatus `json:"status"`
	Format        Format      `json:"format"`
	Team1         []Player    `json:"team1"`
	Team2         []Player    `json:"team2"`
	Score         *Score      `json:"score,omitempty"`
	Winner        Side        `json:"winner,omitempty"`
	AbandonReason string      `json:"abandon_reason,omitempty"`
	Version       int64       `json:"-"`
	ScheduledTime int64       `json:"scheduled_time,omitempty"`
	StartedAt     int64       `json:"started_at,omitempty"`
	EndedAt       int64       `json:"ended_at,omitempty"`
	CreatedAt     int64       `json:"created_at"`
	UpdatedAt     int64       `json:"updated_at"`
}

// MatchResult is emitted exactly once, when RecordPoint produces a match
// winner. Abandoned matches never emit one.
type MatchResult struct {
	MatchID   string     `json:"match_id"`
	EventID   string     `json:"event_id"`
	Winner    Side       `json:"winner"`
	Sets      []SetScore `json:"sets"`
	ScoreLine string     `json:"score_line"`
}

// engine handles database operations and score transitions for matches.
type engine struct {
	db    *sql.DB
	locks *keymutex.KeyMutex // one lock per match ID
}

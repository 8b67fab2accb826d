package scoring

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/matchpoint-club/matchpoint/internal/apperror"
	"github.com/matchpoint-club/matchpoint/internal/keymutex"
)

// New creates a new score Engine backed by db.
func New(db *sql.DB) Engine {
	return &engine{
		db:    db,
		locks: keymutex.New(),
	}
}

func (e *engine) CreateMatch(eventID, name string, format Format, team1, team2 []Player, scheduledTime int64) (*Match, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if len(team1) == 0 || len(team1) > 2 || len(team2) == 0 || len(team2) > 2 {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, "each side needs one or two players")
	}
	if name == "" {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, "match name is required")
	}

	now := time.Now().Unix()
	match := &Match{
		ID:            uuid.NewString(),
		EventID:       eventID,
		Name:          name,
		Status:        MatchScheduled,
		Format:        format,
		Team1:         team1,
		Team2:         team2,
		ScheduledTime: scheduledTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	team1JSON, err := json.Marshal(team1)
	if err != nil {
		return nil, err
	}
	team2JSON, err := json.Marshal(team2)
	if err != nil {
		return nil, err
	}

	_, err = e.db.Exec(`
		INSERT INTO matches (id, event_id, name, status, best_of, final_set_rule, team1_json, team2_json, scheduled_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, match.ID, eventID, name, match.Status, format.BestOf, format.FinalSet, team1JSON, team2JSON, scheduledTime, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}

	log.Info("Match scheduled", "matchID", match.ID, "eventID", eventID, "name", name)
	return match, nil
}

func (e *engine) StartMatch(matchID string) (*Match, error) {
	e.locks.Lock(matchID)
	defer e.locks.Unlock(matchID)

	match, err := e.getMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != MatchScheduled {
		return nil, apperror.Wrap(apperror.ErrInvalidTransition, "match %s is %s, only scheduled matches start", matchID, match.Status)
	}

	match.Status = MatchLive
	match.Score = NewScore(SideTeam1)
	match.StartedAt = time.Now().Unix()
	if err := e.save(match); err != nil {
		return nil, err
	}
	log.Info("Match started", "matchID", matchID)
	return match, nil
}

// RecordPoint is a single deterministic transition: either the state
// advances and is persisted, or an error is returned and nothing changes.
func (e *engine) RecordPoint(matchID string, winner Side) (*Match, *MatchResult, error) {
	e.locks.Lock(matchID)
	defer e.locks.Unlock(matchID)

	match, err := e.getMatch(matchID)
	if err != nil {
		return nil, nil, err
	}
	if match.Winner != "" {
		return nil, nil, apperror.Wrap(apperror.ErrMatchAlreadyComplete, "match %s already won by %s", matchID, match.Winner)
	}
	if match.Status != MatchLive {
		return nil, nil, apperror.Wrap(apperror.ErrMatchNotLive, "match %s is %s", matchID, match.Status)
	}

	if err := match.Score.RecordPoint(match.Format, winner); err != nil {
		return nil, nil, err
	}

	var result *MatchResult
	if match.Score.Winner != "" {
		match.Winner = match.Score.Winner
		match.Status = MatchCompleted
		match.EndedAt = time.Now().Unix()
		result = &MatchResult{
			MatchID:   match.ID,
			EventID:   match.EventID,
			Winner:    match.Winner,
			Sets:      match.Score.Sets,
			ScoreLine: match.Score.ScoreLine(),
		}
	}

	if err := e.save(match); err != nil {
		return nil, nil, err
	}
	if result != nil {
		log.Info("Match completed", "matchID", matchID, "winner", result.Winner, "score", result.ScoreLine)
	}
	return match, result, nil
}

func (e *engine) Abandon(matchID, reason string) (*Match, error) {
	e.locks.Lock(matchID)
	defer e.locks.Unlock(matchID)

	match, err := e.getMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != MatchLive {
		return nil, apperror.Wrap(apperror.ErrMatchNotLive, "match %s is %s, only live matches can be abandoned", matchID, match.Status)
	}

	match.Status = MatchAbandoned
	match.AbandonReason = reason
	match.EndedAt = time.Now().Unix()
	if err := e.save(match); err != nil {
		return nil, err
	}
	log.Info("Match abandoned", "matchID", matchID, "reason", reason)
	return match, nil
}

func (e *engine) GetMatch(matchID string) (*Match, error) {
	return e.getMatch(matchID)
}

func (e *engine) ListByEvent(eventID string) ([]*Match, error) {
	rows, err := e.db.Query(`
		SELECT id, event_id, name, status, best_of, final_set_rule, team1_json, team2_json,
		       score_json, winner, abandon_reason, version, scheduled_time, started_at, ended_at, created_at, updated_at
		FROM matches WHERE event_id = ? ORDER BY scheduled_time ASC, created_at ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []*Match{}
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (e *engine) getMatch(matchID string) (*Match, error) {
	row := e.db.QueryRow(`
		SELECT id, event_id, name, status, best_of, final_set_rule, team1_json, team2_json,
		       score_json, winner, abandon_reason, version, scheduled_time, started_at, ended_at, created_at, updated_at
		FROM matches WHERE id = ?
	`, matchID)

	match, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, apperror.Wrap(apperror.ErrNotFound, "match %s not found", matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	return match, nil
}

// save persists the mutable match state with an optimistic version check.
// Under the per-match lock the check never fails in-process; it guards
// against a second instance writing the same row.
func (e *engine) save(match *Match) error {
	scoreJSON, err := json.Marshal(match.Score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}

	now := time.Now().Unix()
	res, err := e.db.Exec(`
		UPDATE matches
		SET status = ?, score_json = ?, winner = ?, abandon_reason = ?, started_at = ?, ended_at = ?,
		    updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, match.Status, scoreJSON, nullableString(string(match.Winner)), nullableString(match.AbandonReason),
		nullableInt(match.StartedAt), nullableInt(match.EndedAt), now, match.ID, match.Version)
	if err != nil {
		return fmt.Errorf("failed to save match %s: %w", match.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("match %s was modified concurrently (version %d)", match.ID, match.Version)
	}
	match.Version++
	match.UpdatedAt = now
	return nil
}

type scanner interface{ Scan(...any) error }

func scanMatch(sc scanner) (*Match, error) {
	var match Match
	var team1JSON, team2JSON, scoreJSON, winner, abandonReason sql.NullString
	var scheduledTime, startedAt, endedAt sql.NullInt64

	err := sc.Scan(&match.ID, &match.EventID, &match.Name, &match.Status,
		&match.Format.BestOf, &match.Format.FinalSet, &team1JSON, &team2JSON,
		&scoreJSON, &winner, &abandonReason, &match.Version,
		&scheduledTime, &startedAt, &endedAt, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return nil, err
	}

	match.Winner = Side(winner.String)
	match.AbandonReason = abandonReason.String
	match.ScheduledTime = scheduledTime.Int64
	match.StartedAt = startedAt.Int64
	match.EndedAt = endedAt.Int64

	if team1JSON.Valid && team1JSON.String != "" {
		if err := json.Unmarshal([]byte(team1JSON.String), &match.Team1); err != nil {
			return nil, fmt.Errorf("failed to unmarshal team1 for match %s: %w", match.ID, err)
		}
	}
	if team2JSON.Valid && team2JSON.String != "" {
		if err := json.Unmarshal([]byte(team2JSON.String), &match.Team2); err != nil {
			return nil, fmt.Errorf("failed to unmarshal team2 for match %s: %w", match.ID, err)
		}
	}
	if scoreJSON.Valid && scoreJSON.String != "" {
		var score Score
		if err := json.Unmarshal([]byte(scoreJSON.String), &score); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score for match %s: %w", match.ID, err)
		}
		match.Score = &score
	}
	return &match, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(i int64) any {
	if i == 0 {
		return nil
	}
	return i
}

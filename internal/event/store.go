package event

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/matchpoint-club/matchpoint/internal/apperror"
)

// NewStore creates a new event Store.
func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) Create(input NewEvent) (*Event, error) {
	if input.Title == "" {
		return nil, apperror.Wrap(apperror.ErrInvalidInput, "event title is required")
	}
	if input.Category == "" {
		input.Category = "tennis"
	}

	now := time.Now().Unix()
	ev := &Event{
		ID:               uuid.NewString(),
		Title:            input.Title,
		Category:         input.Category,
		Location:         input.Location,
		StartTime:        input.StartTime,
		EndTime:          input.EndTime,
		MaxParticipants:  input.MaxParticipants,
		RequiresApproval: input.RequiresApproval,
		Status:           StatusDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := s.db.Exec(`
		INSERT INTO events (id, title, category, location, start_time, end_time, max_participants, requires_approval, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.Title, ev.Category, ev.Location, nullableInt(ev.StartTime), nullableInt(ev.EndTime),
		ev.MaxParticipants, ev.RequiresApproval, ev.Status, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	log.Info("Event created", "eventID", ev.ID, "title", ev.Title)
	return ev, nil
}

func (s *store) Get(eventID string) (*Event, error) {
	row := s.db.QueryRow(`
		SELECT id, title, category, location, start_time, end_time, max_participants, requires_approval, status, created_at, updated_at
		FROM events WHERE id = ?
	`, eventID)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, apperror.Wrap(apperror.ErrNotFound, "event %s not found", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	return ev, nil
}

func (s *store) List(status Status) ([]Event, error) {
	query := `
		SELECT id, title, category, location, start_time, end_time, max_participants, requires_approval, status, created_at, updated_at
		FROM events`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY start_time ASC, created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (s *store) Publish(eventID string) (*Event, error) {
	ev, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}
	// An event without a real time window cannot be opened for registration.
	if ev.StartTime == 0 || ev.EndTime == 0 || ev.EndTime <= ev.StartTime {
		return nil, apperror.Wrap(apperror.ErrInvalidSchedule, "event %s needs start and end times before publishing", eventID)
	}
	return s.transition(eventID, StatusPublished, nil)
}

func (s *store) Start(eventID string) (*Event, error) {
	return s.transition(eventID, StatusOngoing, nil)
}

func (s *store) End(eventID string) (*Event, error) {
	return s.transition(eventID, StatusEnded, nil)
}

func (s *store) Cancel(eventID string) (*Event, error) {
	return s.transition(eventID, StatusCanceled, nil)
}

func (s *store) CancelWithin(eventID string, fn func(*sql.Tx) error) (*Event, error) {
	return s.transition(eventID, StatusCanceled, fn)
}

// transition moves the event to target with the allowed source states guarded
// in the UPDATE itself, so two racing transitions cannot both win. The
// caller's paired writes run in the same transaction as the status flip.
func (s *store) transition(eventID string, target Status, fn func(*sql.Tx) error) (*Event, error) {
	var from []Status
	for source, targets := range validTransitions {
		for _, t := range targets {
			if t == target {
				from = append(from, source)
			}
		}
	}

	placeholders := make([]string, len(from))
	args := []any{target, time.Now().Unix(), eventID}
	for i, f := range from {
		placeholders[i] = "?"
		args = append(args, f)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transition transaction: %w", err)
	}

	res, err := tx.Exec(fmt.Sprintf(`
		UPDATE events SET status = ?, updated_at = ? WHERE id = ? AND status IN (%s)
	`, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to transition event %s: %w", eventID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if n == 0 {
		tx.Rollback()
		ev, err := s.Get(eventID)
		if err != nil {
			return nil, err
		}
		return nil, apperror.Wrap(apperror.ErrInvalidTransition, "event %s is %s, cannot move to %s", eventID, ev.Status, target)
	}

	if fn != nil {
		if err := fn(tx); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition for event %s: %w", eventID, err)
	}

	log.Info("Event status changed", "eventID", eventID, "status", target)
	return s.Get(eventID)
}

type scanner interface{ Scan(...any) error }

func scanEvent(sc scanner) (*Event, error) {
	var ev Event
	var location sql.NullString
	var startTime, endTime sql.NullInt64
	var maxParticipants sql.NullInt64

	err := sc.Scan(&ev.ID, &ev.Title, &ev.Category, &location, &startTime, &endTime,
		&maxParticipants, &ev.RequiresApproval, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}

	ev.Location = location.String
	ev.StartTime = startTime.Int64
	ev.EndTime = endTime.Int64
	if maxParticipants.Valid {
		mp := int(maxParticipants.Int64)
		ev.MaxParticipants = &mp
	}
	return &ev, nil
}

func nullableInt(i int64) any {
	if i == 0 {
		return nil
	}
	return i
}

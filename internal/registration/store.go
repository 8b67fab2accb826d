package registration

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/matchpoint-club/matchpoint/internal/apperror"
	"github.com/matchpoint-club/matchpoint/internal/keymutex"
	"github.com/matchpoint-club/matchpoint/internal/ledger"
)

// New creates a new registration Manager.
func New(db *sql.DB, l ledger.Ledger) Manager {
	return &manager{
		db:     db,
		ledger: l,
		locks:  keymutex.New(),
	}
}

// Register performs the check-then-act signup under the per-event lock:
// event open, capacity free, no active registration yet, then insert.
func (m *manager) Register(userID, eventID string) (*Registration, error) {
	m.locks.Lock(eventID)
	defer m.locks.Unlock(eventID)

	tx, err := m.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	var maxParticipants sql.NullInt64
	var requiresApproval bool
	err = tx.QueryRow(`SELECT status, max_participants, requires_approval FROM events WHERE id = ?`, eventID).
		Scan(&status, &maxParticipants, &requiresApproval)
	if err == sql.ErrNoRows {
		return nil, apperror.Wrap(apperror.ErrNotFound, "event %s not found", eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	if status != "published" {
		return nil, apperror.Wrap(apperror.ErrEventNotOpen, "event %s is %s", eventID, status)
	}

	var active int
	err = tx.QueryRow(`SELECT COUNT(*) FROM registrations WHERE event_id = ? AND signup_status != ?`,
		eventID, StatusCanceled).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("failed to count active registrations: %w", err)
	}
	if maxParticipants.Valid && int64(active) >= maxParticipants.Int64 {
		return nil, apperror.Wrap(apperror.ErrEventFull, "event %s is full (%d/%d)", eventID, active, maxParticipants.Int64)
	}

	var exists bool
	err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM registrations WHERE user_id = ? AND event_id = ? AND signup_status != ?)`,
		userID, eventID, StatusCanceled).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if exists {
		return nil, apperror.Wrap(apperror.ErrAlreadyRegistered, "user %s already registered for event %s", userID, eventID)
	}

	reg := &Registration{
		ID:         uuid.NewString(),
		UserID:     userID,
		EventID:    eventID,
		Status:     StatusApproved,
		SignupTime: time.Now().Unix(),
		UpdatedAt:  time.Now().Unix(),
	}
	if requiresApproval {
		reg.Status = StatusPending
	}

	_, err = tx.Exec(`
		INSERT INTO registrations (id, user_id, event_id, signup_status, signup_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, reg.ID, reg.UserID, reg.EventID, reg.Status, reg.SignupTime, reg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	log.Info("Registration created", "userID", userID, "eventID", eventID, "status", reg.Status)
	return reg, nil
}

// Cancel is deliberately not idempotent: canceling something that is not an
// active registration surfaces NOT_REGISTERED so double-cancel bugs are
// visible to the caller.
func (m *manager) Cancel(userID, eventID string) error {
	m.locks.Lock(eventID)
	defer m.locks.Unlock(eventID)

	res, err := m.db.Exec(`
		UPDATE registrations SET signup_status = ?, updated_at = ?
		WHERE user_id = ? AND event_id = ? AND signup_status != ?
	`, StatusCanceled, time.Now().Unix(), userID, eventID, StatusCanceled)
	if err != nil {
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.Wrap(apperror.ErrNotRegistered, "user %s has no active registration for event %s", userID, eventID)
	}
	log.Info("Registration canceled", "userID", userID, "eventID", eventID)
	return nil
}

func (m *manager) Approve(userID, eventID string) error {
	return m.transition(userID, eventID, StatusApproved)
}

func (m *manager) Reject(userID, eventID string) error {
	return m.transition(userID, eventID, StatusRejected)
}

func (m *manager) transition(userID, eventID string, to SignupStatus) error {
	m.locks.Lock(eventID)
	defer m.locks.Unlock(eventID)

	reg, err := m.get(m.db, userID, eventID)
	if err != nil {
		return err
	}
	allowed := false
	for _, next := range validTransitions[reg.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperror.Wrap(apperror.ErrInvalidTransition, "cannot move signup from %s to %s", reg.Status, to)
	}

	_, err = m.db.Exec(`UPDATE registrations SET signup_status = ?, updated_at = ? WHERE id = ?`,
		to, time.Now().Unix(), reg.ID)
	if err != nil {
		return fmt.Errorf("failed to update signup status: %w", err)
	}
	return nil
}

// SignIn records attendance once; a second sign-in is a conflict.
func (m *manager) SignIn(userID, eventID, method string) error {
	m.locks.Lock(eventID)
	defer m.locks.Unlock(eventID)

	reg, err := m.get(m.db, userID, eventID)
	if err != nil {
		return err
	}
	if reg.IsSignIn {
		return apperror.Wrap(apperror.ErrAlreadySignedIn, "user %s already signed in for event %s", userID, eventID)
	}
	if method == "" {
		method = "manual"
	}

	now := time.Now().Unix()
	_, err = m.db.Exec(`UPDATE registrations SET is_signin = 1, signin_time = ?, signin_method = ?, updated_at = ? WHERE id = ?`,
		now, method, now, reg.ID)
	if err != nil {
		return fmt.Errorf("failed to record sign-in: %w", err)
	}
	return nil
}

// Settle validates every entry under the per-event lock, then applies the
// whole settlement in one transaction: all registration rows and all ledger
// entries commit together or not at all, so a failed entry never leaves the
// event half settled.
func (m *manager) Settle(eventID string, results map[string]Result) error {
	m.locks.Lock(eventID)
	defer m.locks.Unlock(eventID)

	regs := make(map[string]*Registration, len(results))
	for userID := range results {
		reg, err := m.get(m.db, userID, eventID)
		if err != nil {
			return err
		}
		if reg.Settled() {
			return apperror.Wrap(apperror.ErrDuplicateSettlement, "user %s already settled for event %s", userID, eventID)
		}
		regs[userID] = reg
	}

	entries := make([]ledger.Entry, 0, len(results))
	for userID, result := range results {
		if result.Points == 0 {
			// Zero points settles the registration with no ledger entry.
			continue
		}
		reason := result.PointsType
		if reason == "" {
			reason = "settlement"
		}
		entries = append(entries, ledger.Entry{
			UserID: userID,
			Amount: result.Points,
			Reason: reason,
			Ref:    ledger.CauseRef{EventID: eventID, RegistrationID: regs[userID].ID},
		})
	}

	now := time.Now().Unix()
	err := m.ledger.ApplyAll(entries, func(tx *sql.Tx) error {
		for userID, result := range results {
			reg := regs[userID]
			res, err := tx.Exec(`
				UPDATE registrations
				SET points = ?, points_type = ?, rank = ?, settled_at = ?, updated_at = ?
				WHERE id = ? AND settled_at IS NULL
			`, result.Points, result.PointsType, nullableRank(result.Rank), now, now, reg.ID)
			if err != nil {
				return fmt.Errorf("failed to write settlement onto registration %s: %w", reg.ID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperror.Wrap(apperror.ErrDuplicateSettlement, "registration %s settled concurrently", reg.ID)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("settlement failed for event %s: %w", eventID, err)
	}

	for userID, result := range results {
		log.Info("Participant settled", "userID", userID, "eventID", eventID, "points", result.Points, "rank", result.Rank)
	}
	return nil
}

// CancelAllActive is the cancellation cascade for a canceled event. It is a
// single UPDATE, so it is all-or-nothing, and it never touches the ledger.
func (m *manager) CancelAllActive(eventID string) (int, error) {
	m.locks.Lock(eventID)
	defer m.locks.Unlock(eventID)
	return m.cancelAllActive(m.db, eventID)
}

// CancelAllActiveWithin runs the cascade inside the caller's open transaction.
// It must not take the per-event lock: Register holds that lock before it
// begins its own transaction, so a transaction holder waiting on the lock
// would deadlock. The enclosing transaction makes the cascade atomic, and
// Register's in-transaction status check rejects signups against an event that
// is no longer published.
func (m *manager) CancelAllActiveWithin(tx *sql.Tx, eventID string) (int, error) {
	return m.cancelAllActive(tx, eventID)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (m *manager) cancelAllActive(e execer, eventID string) (int, error) {
	res, err := e.Exec(`
		UPDATE registrations SET signup_status = ?, updated_at = ?
		WHERE event_id = ? AND signup_status != ?
	`, StatusCanceled, time.Now().Unix(), eventID, StatusCanceled)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel registrations for event %s: %w", eventID, err)
	}
	n, _ := res.RowsAffected()
	log.Info("Canceled active registrations", "eventID", eventID, "count", n)
	return int(n), nil
}

func (m *manager) Get(userID, eventID string) (*Registration, error) {
	return m.get(m.db, userID, eventID)
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// get returns the active registration for (user, event); canceled attempts do
// not count.
func (m *manager) get(q querier, userID, eventID string) (*Registration, error) {
	row := q.QueryRow(`
		SELECT id, user_id, event_id, signup_status, signup_time, is_signin, signin_time, signin_method,
		       points, points_type, rank, settled_at, updated_at
		FROM registrations
		WHERE user_id = ? AND event_id = ? AND signup_status != ?
	`, userID, eventID, StatusCanceled)

	reg, err := scanRegistration(row)
	if err == sql.ErrNoRows {
		return nil, apperror.Wrap(apperror.ErrRegistrationNotFound, "no active registration for user %s in event %s", userID, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	return reg, nil
}

func (m *manager) Roster(eventID string, status SignupStatus) ([]Registration, error) {
	query := `
		SELECT id, user_id, event_id, signup_status, signup_time, is_signin, signin_time, signin_method,
		       points, points_type, rank, settled_at, updated_at
		FROM registrations WHERE event_id = ?`
	args := []any{eventID}
	if status != "" {
		query += ` AND signup_status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY signup_time ASC`

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	roster := []Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		roster = append(roster, *reg)
	}
	return roster, rows.Err()
}

func (m *manager) ActiveCount(eventID string) (int, error) {
	var count int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM registrations WHERE event_id = ? AND signup_status != ?`,
		eventID, StatusCanceled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active registrations: %w", err)
	}
	return count, nil
}

func (m *manager) Stats(eventID string) (*EventStats, error) {
	var s EventStats
	err := m.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN signup_status = 'approved' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN signup_status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN signup_status = 'rejected' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(is_signin), 0),
		       COALESCE(SUM(points), 0)
		FROM registrations
		WHERE event_id = ? AND signup_status != ?
	`, eventID, StatusCanceled).Scan(&s.TotalSignups, &s.ApprovedCount, &s.PendingCount, &s.RejectedCount, &s.SigninCount, &s.TotalPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate event stats: %w", err)
	}
	return &s, nil
}

type scanner interface{ Scan(...any) error }

func scanRegistration(sc scanner) (*Registration, error) {
	var reg Registration
	var signinTime, settledAt sql.NullInt64
	var signinMethod, pointsType sql.NullString
	var rank sql.NullInt64

	err := sc.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.SignupTime,
		&reg.IsSignIn, &signinTime, &signinMethod, &reg.Points, &pointsType, &rank, &settledAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	reg.SigninTime = signinTime.Int64
	reg.SigninMethod = signinMethod.String
	reg.PointsType = pointsType.String
	reg.SettledAt = settledAt.Int64
	if rank.Valid {
		r := int(rank.Int64)
		reg.Rank = &r
	}
	return &reg, nil
}

func nullableRank(rank int) any {
	if rank <= 0 {
		return nil
	}
	return rank
}

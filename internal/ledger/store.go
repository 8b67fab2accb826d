package ledger

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/matchpoint-club/matchpoint/internal/apperror"
	"github.com/matchpoint-club/matchpoint/internal/keymutex"
)

// New creates a new Ledger backed by db.
func New(db *sql.DB) Ledger {
	return &store{
		db:    db,
		locks: keymutex.New(),
	}
}

func (s *store) Credit(userID string, amount int64, reason string, ref CauseRef) (int64, error) {
	if amount <= 0 {
		return 0, apperror.Wrap(apperror.ErrInvalidAmount, "credit amount must be positive, got %d", amount)
	}
	return s.apply(userID, amount, reason, ref, nil)
}

func (s *store) Debit(userID string, amount int64, reason string, ref CauseRef) (int64, error) {
	if amount <= 0 {
		return 0, apperror.Wrap(apperror.ErrInvalidAmount, "debit amount must be positive, got %d", amount)
	}
	return s.apply(userID, -amount, reason, ref, nil)
}

func (s *store) CreditWithin(userID string, amount int64, reason string, ref CauseRef, fn func(*sql.Tx) error) (int64, error) {
	if amount <= 0 {
		return 0, apperror.Wrap(apperror.ErrInvalidAmount, "credit amount must be positive, got %d", amount)
	}
	return s.apply(userID, amount, reason, ref, fn)
}

func (s *store) DebitWithin(userID string, amount int64, reason string, ref CauseRef, fn func(*sql.Tx) error) (int64, error) {
	if amount <= 0 {
		return 0, apperror.Wrap(apperror.ErrInvalidAmount, "debit amount must be positive, got %d", amount)
	}
	return s.apply(userID, -amount, reason, ref, fn)
}

// apply performs one atomic ledger mutation: read the balance, write the
// immutable record with balance_after, update the cached total, and run the
// caller's paired writes, all in a single transaction. The per-user lock is
// held across the commit so no concurrent mutation can read a stale balance.
func (s *store) apply(userID string, amount int64, reason string, ref CauseRef, fn func(*sql.Tx) error) (int64, error) {
	if amount == 0 {
		return 0, apperror.Wrap(apperror.ErrInvalidAmount, "ledger entry must represent a real change")
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin ledger transaction: %w", err)
	}

	newBalance, err := s.applyIn(tx, Entry{UserID: userID, Amount: amount, Reason: reason, Ref: ref})
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if fn != nil {
		if err := fn(tx); err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ledger transaction: %w", err)
	}

	log.Debug("Ledger entry recorded", "userID", userID, "amount", amount, "balance", newBalance, "reason", reason)
	return newBalance, nil
}

// ApplyAll writes every entry and the caller's paired writes in one
// transaction. Per-user locks are taken in sorted order so two overlapping
// batches cannot deadlock; locks are always taken before the transaction
// begins, matching apply.
func (s *store) ApplyAll(entries []Entry, fn func(*sql.Tx) error) error {
	userIDs := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Amount == 0 {
			return apperror.Wrap(apperror.ErrInvalidAmount, "ledger entry must represent a real change")
		}
		if !seen[e.UserID] {
			seen[e.UserID] = true
			userIDs = append(userIDs, e.UserID)
		}
	}
	sort.Strings(userIDs)
	for _, id := range userIDs {
		s.locks.Lock(id)
		defer s.locks.Unlock(id)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}

	for _, e := range entries {
		if _, err := s.applyIn(tx, e); err != nil {
			tx.Rollback()
			return err
		}
	}

	if fn != nil {
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger transaction: %w", err)
	}

	log.Debug("Ledger batch recorded", "entries", len(entries), "users", len(userIDs))
	return nil
}

// applyIn writes one entry inside an open transaction. Reading the balance
// through tx means a later entry for the same user sees the earlier entry's
// balance, not the pre-transaction one.
func (s *store) applyIn(tx *sql.Tx, e Entry) (int64, error) {
	var balance int64
	err := tx.QueryRow(`SELECT total_points FROM users WHERE id = ?`, e.UserID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, apperror.Wrap(apperror.ErrNotFound, "user %s not found", e.UserID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for user %s: %w", e.UserID, err)
	}

	newBalance := balance + e.Amount
	if newBalance < 0 {
		return 0, apperror.Wrap(apperror.ErrInsufficientBalance,
			"debit of %d exceeds balance %d for user %s", -e.Amount, balance, e.UserID)
	}

	recordID := uuid.NewString()
	now := time.Now().Unix()
	_, err = tx.Exec(`
		INSERT INTO points_records (id, user_id, event_id, registration_id, amount, reason, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, recordID, e.UserID, nullable(e.Ref.EventID), nullable(e.Ref.RegistrationID), e.Amount, e.Reason, newBalance, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert points record: %w", err)
	}

	_, err = tx.Exec(`UPDATE users SET total_points = ?, updated_at = ? WHERE id = ?`, newBalance, now, e.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to update cached balance: %w", err)
	}

	return newBalance, nil
}

func (s *store) Balance(userID string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(`SELECT total_points FROM users WHERE id = ?`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, apperror.Wrap(apperror.ErrNotFound, "user %s not found", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for user %s: %w", userID, err)
	}
	return balance, nil
}

func (s *store) History(userID string, limit, offset int) ([]PointsRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, event_id, registration_id, amount, reason, balance_after, created_at
		FROM points_records
		WHERE user_id = ?
		ORDER BY rowid DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query points history: %w", err)
	}
	defer rows.Close()

	records := []PointsRecord{}
	for rows.Next() {
		var r PointsRecord
		var eventID, registrationID sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &eventID, &registrationID, &r.Amount, &r.Reason, &r.BalanceAfter, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.EventID = eventID.String
		r.RegistrationID = registrationID.String
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

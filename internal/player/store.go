package player

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matchpoint-club/matchpoint/internal/apperror"
)

// New creates a new player Store.
func New(db *sql.DB) Store {
	return &store{db: db}
}

// UpsertPlayer inserts a player or refreshes the nickname of an existing one.
// It never touches total_points; only the ledger writes that column.
func (s *store) UpsertPlayer(playerID, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO users (id, nickname, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nickname = excluded.nickname,
			updated_at = excluded.updated_at;
	`, playerID, nickname, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", playerID, err)
	}
	return nil
}

// UpsertPlayers upserts a batch of players in one transaction.
func (s *store) UpsertPlayers(players []Info) error {
	if len(players) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO users (id, nickname, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nickname = excluded.nickname,
			updated_at = excluded.updated_at;
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, p := range players {
		if _, err := stmt.Exec(p.ID, p.Nickname, now, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *store) GetPlayer(playerID string) (*Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Info
	err := s.db.QueryRow(`
		SELECT id, nickname, total_points, is_deleted, created_at, updated_at
		FROM users WHERE id = ?
	`, playerID).Scan(&p.ID, &p.Nickname, &p.TotalPoints, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.Wrap(apperror.ErrNotFound, "player %s not found", playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", playerID, err)
	}
	return &p, nil
}

func (s *store) IsKnownPlayer(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id = ? AND is_deleted = 0)`, playerID).Scan(&exists)
	if err != nil {
		log.Error("Failed to check player existence", "error", err, "playerID", playerID)
		return false
	}
	return exists
}

func (s *store) SoftDelete(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE users SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0`,
		time.Now().Unix(), playerID)
	if err != nil {
		return fmt.Errorf("failed to soft delete player %s: %w", playerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.Wrap(apperror.ErrNotFound, "player %s not found", playerID)
	}
	return nil
}

// Leaderboard returns non-deleted players ordered by total points.
func (s *store) Leaderboard(limit int) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, nickname, total_points, is_deleted, created_at, updated_at
		FROM users WHERE is_deleted = 0
		ORDER BY total_points DESC, nickname ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []Info{}
	for rows.Next() {
		var p Info
		if err := rows.Scan(&p.ID, &p.Nickname, &p.TotalPoints, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

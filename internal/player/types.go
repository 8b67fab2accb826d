package player

import (
	"database/sql"
	"sync"
)

// store handles all database operations for the player roster.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Info represents a player in the store. TotalPoints is a cache maintained by
// the ledger; replaying the player's points records yields the same value.
type Info struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	TotalPoints int64  `json:"total_points"`
	IsDeleted   bool   `json:"is_deleted"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

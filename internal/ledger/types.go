package ledger

import (
	"database/sql"

	"github.com/matchpoint-club/matchpoint/internal/keymutex"
)

// store handles all database operations for the points ledger.
type store struct {
	db    *sql.DB
	locks *keymutex.KeyMutex // one lock per user ID
}

// PointsRecord is one immutable ledger entry. Amount is signed: positive for
// credits, negative for debits. BalanceAfter is the player's total at the
// time of writing, computed atomically with the write.
type PointsRecord struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	EventID        string `json:"event_id,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`
	Amount         int64  `json:"amount"`
	Reason         string `json:"reason"`
	BalanceAfter   int64  `json:"balance_after"`
	CreatedAt      int64  `json:"created_at"`
}

// Entry is one pending ledger mutation for batch application. Amount is
// signed like PointsRecord.Amount: positive credits, negative debits.
type Entry struct {
	UserID string
	Amount int64
	Reason string
	Ref    CauseRef
}

// CauseRef is the causal back-reference from a ledger entry to the event and
// registration that produced it. Either field may be empty for entries that
// did not originate from an event (manual adjustments).
type CauseRef struct {
	EventID        string
	RegistrationID string
}

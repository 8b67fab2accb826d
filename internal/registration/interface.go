package registration

import "database/sql"

// Manager owns the per-event signup roster: who is registered, capacity and
// uniqueness control, and converting settlement results into ledger entries.
type Manager interface {
	// Register creates a registration for (userID, eventID). The capacity
	// check and insert are atomic per event: of two concurrent calls for the
	// last open slot exactly one succeeds.
	Register(userID, eventID string) (*Registration, error)
	// Cancel marks the active registration canceled. Canceling a missing or
	// already-canceled registration is an error so double-cancel bugs surface.
	Cancel(userID, eventID string) error
	// Approve and Reject move a signup through the approval flow.
	Approve(userID, eventID string) error
	Reject(userID, eventID string) error
	// SignIn records on-site attendance, once per registration.
	SignIn(userID, eventID, method string) error
	// Settle writes every participant's points/points_type/rank and the
	// matching ledger entries in a single transaction: if any entry fails,
	// nothing is written. A registration can be settled at most once.
	Settle(eventID string, results map[string]Result) error
	// CancelAllActive cancels every active registration for the event in one
	// transaction and returns how many were canceled. The ledger is never
	// touched.
	CancelAllActive(eventID string) (int, error)
	// CancelAllActiveWithin runs the same cascade inside the caller's open
	// transaction, for callers that pair it with other writes.
	CancelAllActiveWithin(tx *sql.Tx, eventID string) (int, error)

	Get(userID, eventID string) (*Registration, error)
	Roster(eventID string, status SignupStatus) ([]Registration, error)
	ActiveCount(eventID string) (int, error)
	Stats(eventID string) (*EventStats, error)
}

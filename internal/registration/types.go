package registration

import (
	"database/sql"

	"github.com/matchpoint-club/matchpoint/internal/keymutex"
	"github.com/matchpoint-club/matchpoint/internal/ledger"
)

// SignupStatus is the lifecycle state of one registration attempt.
// Transitions only move forward; canceled is terminal for the attempt (a new
// registration may be created afterwards, the old row is never re-activated).
type SignupStatus string

const (
	StatusPending  SignupStatus = "pending"
	StatusApproved SignupStatus = "approved"
	StatusRejected SignupStatus = "rejected"
	StatusCanceled SignupStatus = "canceled"
)

// validTransitions mirrors the signup approval flow: pending can be decided
// either way, an approved signup can still be rejected, a rejected one can be
// re-approved. Cancellation is handled separately and is always terminal.
var validTransitions = map[SignupStatus][]SignupStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {StatusApproved},
}

// Registration ties exactly one user to one event.
type Registration struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	EventID      string       `json:"event_id"`
	Status       SignupStatus `json:"signup_status"`
	SignupTime   int64        `json:"signup_time"`
	IsSignIn     bool         `json:"is_signin"`
	SigninTime   int64        `json:"signin_time,omitempty"`
	SigninMethod string       `json:"signin_method,omitempty"`
	Points       int64        `json:"points"`
	PointsType   string       `json:"points_type,omitempty"`
	Rank         *int         `json:"rank,omitempty"`
	SettledAt    int64        `json:"settled_at,omitempty"`
	UpdatedAt    int64        `json:"updated_at"`
}

// Settled reports whether this registration has already been settled.
func (r *Registration) Settled() bool { return r.SettledAt != 0 }

// Result is one participant's settlement outcome. Positive points become a
// ledger credit, negative points a debit (penalty), zero points settle with
// no ledger entry.
type Result struct {
	Points     int64  `json:"points"`
	PointsType string `json:"points_type"`
	Rank       int    `json:"rank"`
}

// EventStats aggregates a single event's roster.
type EventStats struct {
	TotalSignups  int   `json:"total_signups"`
	ApprovedCount int   `json:"approved_count"`
	PendingCount  int   `json:"pending_count"`
	RejectedCount int   `json:"rejected_count"`
	SigninCount   int   `json:"signin_count"`
	TotalPoints   int64 `json:"total_points"`
}

// manager handles all database operations for event signups.
type manager struct {
	db     *sql.DB
	ledger ledger.Ledger
	locks  *keymutex.KeyMutex // one lock per event ID
}

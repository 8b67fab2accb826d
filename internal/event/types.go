package event

import (
	"database/sql"

	"github.com/matchpoint-club/matchpoint/internal/metrics"
	"github.com/matchpoint-club/matchpoint/internal/notifier"
	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/pubsub"
	"github.com/matchpoint-club/matchpoint/internal/registration"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
)

// Status is the lifecycle state of an event. Draft events are invisible to
// registration; ended and canceled are terminal.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusOngoing   Status = "ongoing"
	StatusEnded     Status = "ended"
	StatusCanceled  Status = "canceled"
)

// validTransitions encodes the one-way lifecycle. An event can be canceled
// from any non-terminal state; ending requires the event to be ongoing.
var validTransitions = map[Status][]Status{
	StatusDraft:     {StatusPublished, StatusCanceled},
	StatusPublished: {StatusOngoing, StatusCanceled},
	StatusOngoing:   {StatusEnded, StatusCanceled},
}

// Event is one scheduled club event (tournament night, social round robin).
type Event struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	Location         string `json:"location,omitempty"`
	StartTime        int64  `json:"start_time,omitempty"`
	EndTime          int64  `json:"end_time,omitempty"`
	MaxParticipants  *int   `json:"max_participants,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
	Status           Status `json:"status"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

// NewEvent is the input for creating a draft event.
type NewEvent struct {
	Title            string `json:"title"`
	Category         string `json:"category"`
	Location         string `json:"location"`
	StartTime        int64  `json:"start_time"`
	EndTime          int64  `json:"end_time"`
	MaxParticipants  *int   `json:"max_participants"`
	RequiresApproval bool   `json:"requires_approval"`
}

// SettledMessage is the pubsub payload published after a successful
// settlement.
type SettledMessage struct {
	EventID   string              `json:"event_id" msgpack:"event_id"`
	Title     string              `json:"title" msgpack:"title"`
	Standings []notifier.Standing `json:"standings" msgpack:"standings"`
}

// store handles all database operations for events.
type store struct {
	db *sql.DB
}

// Coordinator is the single entry point for everything that mutates an event
// or anything belonging to one. It enforces cross-module ordering (lifecycle
// before roster before ledger) and owns the best-effort side effects:
// notifications, pubsub messages, metrics.
type Coordinator struct {
	events        Store
	registrations registration.Manager
	scores        scoring.Engine
	players       player.Store
	notifier      notifier.Notifier
	pubsub        pubsub.PubSubClient
	metrics       metrics.Metrics
	counters      metrics.MetricsStore
}

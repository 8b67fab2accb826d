package event

import "database/sql"

// Store defines the database operations for the event lifecycle. Transitions
// are guarded at write time: a stale caller gets INVALID_TRANSITION, never a
// silent overwrite.
type Store interface {
	Create(input NewEvent) (*Event, error)
	Get(eventID string) (*Event, error)
	// List returns events filtered by status, or all events when status is "".
	List(status Status) ([]Event, error)
	// Publish opens a draft event for registration. The event must carry a
	// usable time window (INVALID_SCHEDULE otherwise).
	Publish(eventID string) (*Event, error)
	// Start moves a published event to ongoing.
	Start(eventID string) (*Event, error)
	// End moves an ongoing event to ended.
	End(eventID string) (*Event, error)
	// Cancel terminally cancels a draft, published or ongoing event.
	Cancel(eventID string) (*Event, error)
	// CancelWithin is Cancel plus the caller's cascade writes executed inside
	// the same transaction; the status flip and the cascade commit together.
	CancelWithin(eventID string, fn func(*sql.Tx) error) (*Event, error)
}

package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	// EventMatchResult carries a completed match's result for downstream
	// consumers (stats, feeds).
	EventMatchResult EventType = "match-result"
	// EventEventSettled signals that an event's points have been settled.
	EventEventSettled EventType = "event-settled"
)

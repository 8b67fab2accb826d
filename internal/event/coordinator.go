package event

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matchpoint-club/matchpoint/internal/apperror"
	"github.com/matchpoint-club/matchpoint/internal/metrics"
	"github.com/matchpoint-club/matchpoint/internal/notifier"
	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/pubsub"
	"github.com/matchpoint-club/matchpoint/internal/registration"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
)

// NewCoordinator creates a new Coordinator.
func NewCoordinator(
	events Store,
	registrations registration.Manager,
	scores scoring.Engine,
	players player.Store,
	notifier notifier.Notifier,
	pubsub pubsub.PubSubClient,
	metrics metrics.Metrics,
	counters metrics.MetricsStore,
) *Coordinator {
	return &Coordinator{
		events:        events,
		registrations: registrations,
		scores:        scores,
		players:       players,
		notifier:      notifier,
		pubsub:        pubsub,
		metrics:       metrics,
		counters:      counters,
	}
}

// CreateEvent creates a draft event.
func (c *Coordinator) CreateEvent(input NewEvent) (*Event, error) {
	return c.events.Create(input)
}

// PublishEvent opens a draft event for registration and announces it.
func (c *Coordinator) PublishEvent(eventID string, dryRun bool) (*Event, error) {
	ev, err := c.events.Publish(eventID)
	if err != nil {
		return nil, err
	}
	if err := c.notifier.SendEventPublished(ev.Title, ev.StartTime, ev.EndTime, dryRun); err != nil {
		log.Error("Failed to send event published notification", "error", err, "eventID", eventID)
	}
	return ev, nil
}

// StartEvent moves a published event to ongoing; matches can now go live.
func (c *Coordinator) StartEvent(eventID string) (*Event, error) {
	return c.events.Start(eventID)
}

// CancelEvent cancels the event and cascades: the status flip and the
// cancellation of every active registration commit in one transaction. The
// ledger is never touched; points already settled stay settled.
func (c *Coordinator) CancelEvent(eventID string) (*Event, error) {
	var n int
	ev, err := c.events.CancelWithin(eventID, func(tx *sql.Tx) error {
		var err error
		n, err = c.registrations.CancelAllActiveWithin(tx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Event canceled", "eventID", eventID, "registrationsCanceled", n)
	return ev, nil
}

// EndEvent settles every participant's points and then closes the event.
// Settlement runs first: if any entry fails nothing is written and the event
// stays ongoing, so the caller can correct the results and retry.
func (c *Coordinator) EndEvent(eventID string, results map[string]registration.Result, dryRun bool) (*Event, error) {
	ev, err := c.events.Get(eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != StatusOngoing {
		return nil, apperror.Wrap(apperror.ErrInvalidTransition, "event %s is %s, only ongoing events end", eventID, ev.Status)
	}

	start := time.Now()
	if err := c.registrations.Settle(eventID, results); err != nil {
		return nil, err
	}
	c.metrics.ObserveSettlementDuration(time.Since(start).Seconds())
	c.metrics.IncSettlements()
	c.counters.Increment("settlements")

	ev, err = c.events.End(eventID)
	if err != nil {
		return nil, err
	}

	standings := c.standings(results)
	if err := c.pubsub.SendMessage(pubsub.EventEventSettled, &SettledMessage{
		EventID:   ev.ID,
		Title:     ev.Title,
		Standings: standings,
	}); err != nil {
		log.Error("Failed to publish settlement message", "error", err, "eventID", eventID)
	}
	if err := c.notifier.SendEventSettled(ev.Title, standings, dryRun); err != nil {
		log.Error("Failed to send settlement notification", "error", err, "eventID", eventID)
	}
	return ev, nil
}

// Register signs a user up for an event.
func (c *Coordinator) Register(userID, eventID string) (*registration.Registration, error) {
	reg, err := c.registrations.Register(userID, eventID)
	if err != nil {
		if errors.Is(err, apperror.ErrEventFull) || errors.Is(err, apperror.ErrAlreadyRegistered) {
			c.metrics.IncRegistrationConflicts()
		}
		return nil, err
	}
	c.metrics.IncRegistrations()
	c.counters.Increment("registrations")
	return reg, nil
}

// CancelRegistration cancels the user's active registration.
func (c *Coordinator) CancelRegistration(userID, eventID string) error {
	return c.registrations.Cancel(userID, eventID)
}

// ApproveRegistration and RejectRegistration decide a pending signup.
func (c *Coordinator) ApproveRegistration(userID, eventID string) error {
	return c.registrations.Approve(userID, eventID)
}

func (c *Coordinator) RejectRegistration(userID, eventID string) error {
	return c.registrations.Reject(userID, eventID)
}

// SignIn records on-site attendance for a registered participant.
func (c *Coordinator) SignIn(userID, eventID, method string) error {
	ev, err := c.events.Get(eventID)
	if err != nil {
		return err
	}
	// Sign-in only makes sense while the event is running or about to.
	if ev.Status != StatusPublished && ev.Status != StatusOngoing {
		return apperror.Wrap(apperror.ErrEventNotOpen, "event %s is %s, sign-in closed", eventID, ev.Status)
	}
	return c.registrations.SignIn(userID, eventID, method)
}

// ScheduleMatch creates a match under the event. Every listed player must be
// a known, non-deleted club player.
func (c *Coordinator) ScheduleMatch(eventID, name string, format scoring.Format, team1, team2 []scoring.Player, scheduledTime int64) (*scoring.Match, error) {
	ev, err := c.events.Get(eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != StatusPublished && ev.Status != StatusOngoing {
		return nil, apperror.Wrap(apperror.ErrEventNotOpen, "event %s is %s, cannot schedule matches", eventID, ev.Status)
	}
	for _, p := range append(append([]scoring.Player{}, team1...), team2...) {
		if !c.players.IsKnownPlayer(p.ID) {
			return nil, apperror.Wrap(apperror.ErrInvalidInput, "unknown player %s", p.ID)
		}
	}
	return c.scores.CreateMatch(eventID, name, format, team1, team2, scheduledTime)
}

// StartMatch moves a scheduled match to live.
func (c *Coordinator) StartMatch(matchID string) (*scoring.Match, error) {
	return c.scores.StartMatch(matchID)
}

// RecordPoint applies one point. When the point completes the match the
// result is fanned out to pubsub and the notifier best-effort.
func (c *Coordinator) RecordPoint(matchID string, winner scoring.Side, dryRun bool) (*scoring.Match, *scoring.MatchResult, error) {
	match, result, err := c.scores.RecordPoint(matchID, winner)
	if err != nil {
		return nil, nil, err
	}
	c.metrics.IncPointsRecorded()
	c.counters.Increment("points_recorded")

	if result != nil {
		c.metrics.IncMatchesCompleted()
		c.counters.Increment("matches_completed")
		if err := c.pubsub.SendMessage(pubsub.EventMatchResult, result); err != nil {
			log.Error("Failed to publish match result", "error", err, "matchID", matchID)
		}
		if err := c.notifier.SendMatchResult(match, result, dryRun); err != nil {
			log.Error("Failed to send match result notification", "error", err, "matchID", matchID)
		}
	}
	return match, result, nil
}

// AbandonMatch stops a live match without a result.
func (c *Coordinator) AbandonMatch(matchID, reason string) (*scoring.Match, error) {
	return c.scores.Abandon(matchID, reason)
}

// AnnounceLeaderboard posts the current top players to the notifier and
// returns them. Unlike the lifecycle side effects, the announcement is the
// whole operation here, so a send failure is returned to the caller.
func (c *Coordinator) AnnounceLeaderboard(limit int, dryRun bool) ([]player.Info, error) {
	players, err := c.players.Leaderboard(limit)
	if err != nil {
		return nil, err
	}
	if err := c.notifier.SendLeaderboard(players, dryRun); err != nil {
		return nil, err
	}
	log.Info("Leaderboard announced", "players", len(players))
	return players, nil
}

// standings resolves result user IDs to nicknames and orders them by rank,
// unranked entries last.
func (c *Coordinator) standings(results map[string]registration.Result) []notifier.Standing {
	standings := make([]notifier.Standing, 0, len(results))
	for userID, res := range results {
		nickname := userID
		if p, err := c.players.GetPlayer(userID); err == nil {
			nickname = p.Nickname
		}
		standings = append(standings, notifier.Standing{
			Nickname: nickname,
			Points:   res.Points,
			Rank:     res.Rank,
		})
	}
	sort.Slice(standings, func(i, j int) bool {
		ri, rj := standings[i].Rank, standings[j].Rank
		if ri == 0 {
			return false
		}
		if rj == 0 {
			return true
		}
		return ri < rj
	})
	return standings
}

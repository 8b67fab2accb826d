package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/matchpoint-club/matchpoint/internal/apperror"
	"github.com/matchpoint-club/matchpoint/internal/event"
	"github.com/matchpoint-club/matchpoint/internal/registration"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
)

// respondJSON writes v as a JSON response body.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// respondError maps a domain error to an HTTP status and a stable error body.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindConflict:
		status = http.StatusConflict
	case apperror.KindState:
		status = http.StatusUnprocessableEntity
	case apperror.KindConsistency:
		status = http.StatusUnprocessableEntity
		if errors.Is(err, apperror.ErrNotFound) {
			status = http.StatusNotFound
		}
	}
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	}
	respondJSON(w, status, map[string]string{
		"code":  apperror.CodeOf(err),
		"error": err.Error(),
	})
}

// decodeBody decodes the JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// StatsHandler serves the persistent db-backed counters.
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.MetricsStore.GetAll()
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

// EventsHandler creates a draft event on POST and lists events on GET.
func (s *Server) EventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var input event.NewEvent
			if err := decodeBody(r, &input); err != nil {
				respondError(w, err)
				return
			}
			ev, err := s.Coordinator.CreateEvent(input)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusCreated, ev)
		case http.MethodGet:
			events, err := s.Events.List(event.Status(r.URL.Query().Get("status")))
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, events)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// eventTransition handles the shared shape of the lifecycle endpoints.
func (s *Server) eventTransition(fn func(eventID string, dryRun bool) (*event.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID string `json:"event_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		ev, err := fn(body.EventID, isDryRunFromContext(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ev)
	}
}

func (s *Server) PublishEventHandler() http.HandlerFunc {
	return s.eventTransition(s.Coordinator.PublishEvent)
}

func (s *Server) StartEventHandler() http.HandlerFunc {
	return s.eventTransition(func(eventID string, _ bool) (*event.Event, error) {
		return s.Coordinator.StartEvent(eventID)
	})
}

func (s *Server) CancelEventHandler() http.HandlerFunc {
	return s.eventTransition(func(eventID string, _ bool) (*event.Event, error) {
		return s.Coordinator.CancelEvent(eventID)
	})
}

func (s *Server) EndEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID string                         `json:"event_id"`
			Results map[string]registration.Result `json:"results"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		ev, err := s.Coordinator.EndEvent(body.EventID, body.Results, isDryRunFromContext(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ev)
	}
}

func (s *Server) ScheduleMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID       string           `json:"event_id"`
			Name          string           `json:"name"`
			Format        scoring.Format   `json:"format"`
			Team1         []scoring.Player `json:"team1"`
			Team2         []scoring.Player `json:"team2"`
			ScheduledTime int64            `json:"scheduled_time"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		match, err := s.Coordinator.ScheduleMatch(body.EventID, body.Name, body.Format, body.Team1, body.Team2, body.ScheduledTime)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, match)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID string `json:"event_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		reg, err := s.Coordinator.Register(userIDFromContext(r), body.EventID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, reg)
	}
}

func (s *Server) CancelRegistrationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID string `json:"event_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		if err := s.Coordinator.CancelRegistration(userIDFromContext(r), body.EventID); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
	}
}

func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID string `json:"event_id"`
			Method  string `json:"method"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		if body.Method == "" {
			body.Method = "manual"
		}
		if err := s.Coordinator.SignIn(userIDFromContext(r), body.EventID, body.Method); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "signed_in"})
	}
}

// registrationDecision handles the shared shape of approve/reject.
func (s *Server) registrationDecision(fn func(userID, eventID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID  string `json:"user_id"`
			EventID string `json:"event_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		if err := fn(body.UserID, body.EventID); err != nil {
			respondError(w, err)
			return
		}
		reg, err := s.Registrations.Get(body.UserID, body.EventID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, reg)
	}
}

func (s *Server) ApproveRegistrationHandler() http.HandlerFunc {
	return s.registrationDecision(s.Coordinator.ApproveRegistration)
}

func (s *Server) RejectRegistrationHandler() http.HandlerFunc {
	return s.registrationDecision(s.Coordinator.RejectRegistration)
}

func (s *Server) RosterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := r.URL.Query().Get("event_id")
		status := registration.SignupStatus(r.URL.Query().Get("status"))
		roster, err := s.Registrations.Roster(eventID, status)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, roster)
	}
}

func (s *Server) EventStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.Registrations.Stats(r.URL.Query().Get("event_id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

// ListMatchesHandler lists an event's matches, or fetches one by ID.
func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if matchID := r.URL.Query().Get("match_id"); matchID != "" {
			match, err := s.Matches.GetMatch(matchID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, match)
			return
		}
		matches, err := s.Matches.ListByEvent(r.URL.Query().Get("event_id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) StartMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MatchID string `json:"match_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		match, err := s.Coordinator.StartMatch(body.MatchID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, match)
	}
}

func (s *Server) RecordPointHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MatchID string       `json:"match_id"`
			Winner  scoring.Side `json:"winner"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		match, result, err := s.Coordinator.RecordPoint(body.MatchID, body.Winner, isDryRunFromContext(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"match":  match,
			"result": result,
		})
	}
}

func (s *Server) AbandonMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MatchID string `json:"match_id"`
			Reason  string `json:"reason"`
		}
		if err := decodeBody(r, &body); err != nil {
			respondError(w, err)
			return
		}
		match, err := s.Coordinator.AbandonMatch(body.MatchID, body.Reason)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, match)
	}
}

func (s *Server) LedgerHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 50)
		offset := queryInt(r, "offset", 0)
		records, err := s.Ledger.History(userIDFromContext(r), limit, offset)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, records)
	}
}

func (s *Server) BalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := s.Ledger.Balance(userIDFromContext(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]int64{"balance": balance})
	}
}

// LeaderboardHandler serves the points leaderboard.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Players.Leaderboard(queryInt(r, "limit", 20))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, players)
	}
}

// AnnounceLeaderboardHandler posts the current leaderboard to the notifier.
func (s *Server) AnnounceLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		players, err := s.Coordinator.AnnounceLeaderboard(queryInt(r, "limit", 20), isDryRunFromContext(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, players)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

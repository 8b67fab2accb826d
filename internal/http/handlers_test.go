package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matchpoint-club/matchpoint/internal/config"
	"github.com/matchpoint-club/matchpoint/internal/database"
	"github.com/matchpoint-club/matchpoint/internal/event"
	"github.com/matchpoint-club/matchpoint/internal/ledger"
	"github.com/matchpoint-club/matchpoint/internal/metrics"
	"github.com/matchpoint-club/matchpoint/internal/notifier"
	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/pubsub"
	"github.com/matchpoint-club/matchpoint/internal/registration"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer initializes a new server over a test database, with mock
// notifier and pubsub clients behind the coordinator.
func setupTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	players := player.New(db)
	require.NoError(t, players.UpsertPlayers([]player.Info{
		{ID: "u1", Nickname: "One"},
		{ID: "u2", Nickname: "Two"},
	}))

	l := ledger.New(db)
	registrations := registration.New(db, l)
	matches := scoring.New(db)
	events := event.NewStore(db)

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	metricsStore := metrics.New(db)

	coordinator := event.NewCoordinator(
		events,
		registrations,
		matches,
		players,
		notifier.NewMock(),
		pubsub.NewMock("TEST"),
		metrics.NewMock(),
		metricsStore,
	)

	server := NewServer(coordinator, events, registrations, players, l, matches,
		metricsSvc, metricsStore, metricsHandler, config.Config{})

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
		db.Close()
	}
	return server, teardown
}

// doJSON serves a JSON request through the server's router and returns the recorder.
func doJSON(t *testing.T, server *Server, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

// createPublishedEvent drives an event through create and publish via the API.
func createPublishedEvent(t *testing.T, server *Server) *event.Event {
	t.Helper()

	rr := doJSON(t, server, "POST", "/events", map[string]any{
		"title":      "Club Night",
		"start_time": 1000,
		"end_time":   2000,
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var ev event.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ev))

	rr = doJSON(t, server, "POST", "/events/publish", map[string]string{"event_id": ev.ID}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var published event.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &published))
	return &published
}

func TestHealthCheckHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestEventsHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	t.Run("creates a draft event", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/events", map[string]any{"title": "Open Day"}, nil)
		require.Equal(t, http.StatusCreated, rr.Code)

		var ev event.Event
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ev))
		assert.Equal(t, event.StatusDraft, ev.Status)
		assert.NotEmpty(t, ev.ID)
	})

	t.Run("rejects a missing title", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/events", map[string]any{"title": ""}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "INVALID_INPUT")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/events", bytes.NewBufferString("{not json"))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("lists events by status", func(t *testing.T) {
		rr := doJSON(t, server, "GET", "/events?status=draft", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var events []event.Event
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
		assert.NotEmpty(t, events)
		for _, ev := range events {
			assert.Equal(t, event.StatusDraft, ev.Status)
		}
	})
}

func TestEventLifecycleHandlers(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	t.Run("publish without a schedule is a validation error", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/events", map[string]any{"title": "No times"}, nil)
		require.Equal(t, http.StatusCreated, rr.Code)
		var ev event.Event
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ev))

		rr = doJSON(t, server, "POST", "/events/publish", map[string]string{"event_id": ev.ID}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "INVALID_SCHEDULE")
	})

	t.Run("unknown event is a 404", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/events/publish", map[string]string{"event_id": "ghost"}, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "NOT_FOUND")
	})

	t.Run("illegal transition is a 422", func(t *testing.T) {
		ev := createPublishedEvent(t, server)

		rr := doJSON(t, server, "POST", "/events/publish", map[string]string{"event_id": ev.ID}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "INVALID_TRANSITION")
	})

	t.Run("start then cancel", func(t *testing.T) {
		ev := createPublishedEvent(t, server)

		rr := doJSON(t, server, "POST", "/events/start", map[string]string{"event_id": ev.ID}, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = doJSON(t, server, "POST", "/events/cancel", map[string]string{"event_id": ev.ID}, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var canceled event.Event
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &canceled))
		assert.Equal(t, event.StatusCanceled, canceled.Status)
	})
}

func TestRegisterHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()
	ev := createPublishedEvent(t, server)

	t.Run("requires the identity header", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/register", map[string]string{"event_id": ev.ID}, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("registers the caller", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/register", map[string]string{"event_id": ev.ID},
			map[string]string{"X-User-ID": "u1"})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var reg registration.Registration
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))
		assert.Equal(t, "u1", reg.UserID)
	})

	t.Run("duplicate registration is a 409", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/register", map[string]string{"event_id": ev.ID},
			map[string]string{"X-User-ID": "u1"})
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "ALREADY_REGISTERED")
	})
}

func TestSignInHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()
	ev := createPublishedEvent(t, server)

	rr := doJSON(t, server, "POST", "/register", map[string]string{"event_id": ev.ID},
		map[string]string{"X-User-ID": "u1"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, server, "POST", "/sign-in", map[string]string{"event_id": ev.ID},
		map[string]string{"X-User-ID": "u1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "signed_in")

	// A canceled event no longer accepts sign-ins.
	rr = doJSON(t, server, "POST", "/events/cancel", map[string]string{"event_id": ev.ID}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, server, "POST", "/sign-in", map[string]string{"event_id": ev.ID},
		map[string]string{"X-User-ID": "u1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "EVENT_NOT_OPEN")
}

func TestRosterAndEventStatsHandlers(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()
	ev := createPublishedEvent(t, server)

	for _, u := range []string{"u1", "u2"} {
		rr := doJSON(t, server, "POST", "/register", map[string]string{"event_id": ev.ID},
			map[string]string{"X-User-ID": u})
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := doJSON(t, server, "GET", "/events/roster?event_id="+ev.ID, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var roster []registration.Registration
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &roster))
	assert.Len(t, roster, 2)

	rr = doJSON(t, server, "GET", "/events/stats?event_id="+ev.ID, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var stats registration.EventStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalSignups)
}

func TestEndEventHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()
	ev := createPublishedEvent(t, server)

	rr := doJSON(t, server, "POST", "/register", map[string]string{"event_id": ev.ID},
		map[string]string{"X-User-ID": "u1"})
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doJSON(t, server, "POST", "/events/start", map[string]string{"event_id": ev.ID}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, server, "POST", "/events/end", map[string]any{
		"event_id": ev.ID,
		"results": map[string]any{
			"u1": map[string]any{"points": 50, "points_type": "rank", "rank": 1},
		},
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var ended event.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ended))
	assert.Equal(t, event.StatusEnded, ended.Status)

	// The settled points show up on the caller's balance.
	rr = doJSON(t, server, "GET", "/ledger/balance", nil, map[string]string{"X-User-ID": "u1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"balance": 50}`, rr.Body.String())
}

func TestMatchHandlers(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()
	ev := createPublishedEvent(t, server)

	scheduleBody := map[string]any{
		"event_id":       ev.ID,
		"name":           "Court 1",
		"format":         map[string]any{"best_of": 1, "final_set": "tiebreak"},
		"team1":          []map[string]string{{"id": "u1", "name": "One"}},
		"team2":          []map[string]string{{"id": "u2", "name": "Two"}},
		"scheduled_time": 1500,
	}

	rr := doJSON(t, server, "POST", "/events/schedule-match", scheduleBody, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var match scoring.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &match))
	assert.Equal(t, scoring.MatchScheduled, match.Status)

	t.Run("record point requires a live match", func(t *testing.T) {
		rr := doJSON(t, server, "POST", "/matches/record-point",
			map[string]string{"match_id": match.ID, "winner": "team1"}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "MATCH_NOT_LIVE")
	})

	rr = doJSON(t, server, "POST", "/matches/start", map[string]string{"match_id": match.ID}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("record point returns the match and a result once complete", func(t *testing.T) {
		var resp struct {
			Match  *scoring.Match       `json:"match"`
			Result *scoring.MatchResult `json:"result"`
		}
		for i := 0; i < 24; i++ {
			rr := doJSON(t, server, "POST", "/matches/record-point",
				map[string]string{"match_id": match.ID, "winner": "team1"}, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		}
		require.NotNil(t, resp.Result)
		assert.Equal(t, "6-0", resp.Result.ScoreLine)
		assert.Equal(t, scoring.SideTeam1, resp.Match.Winner)
	})

	t.Run("lists an event's matches", func(t *testing.T) {
		rr := doJSON(t, server, "GET", "/matches?event_id="+ev.ID, nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var matches []scoring.Match
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matches))
		require.Len(t, matches, 1)
		assert.Equal(t, match.ID, matches[0].ID)
	})

	t.Run("fetches one match by id", func(t *testing.T) {
		rr := doJSON(t, server, "GET", "/matches?match_id="+match.ID, nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var got scoring.Match
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, scoring.MatchCompleted, got.Status)
	})
}

func TestAbandonMatchHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()
	ev := createPublishedEvent(t, server)

	rr := doJSON(t, server, "POST", "/events/schedule-match", map[string]any{
		"event_id":       ev.ID,
		"name":           "Court 2",
		"format":         map[string]any{"best_of": 3, "final_set": "tiebreak"},
		"team1":          []map[string]string{{"id": "u1", "name": "One"}},
		"team2":          []map[string]string{{"id": "u2", "name": "Two"}},
		"scheduled_time": 1500,
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var match scoring.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &match))

	rr = doJSON(t, server, "POST", "/matches/start", map[string]string{"match_id": match.ID}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, server, "POST", "/matches/abandon",
		map[string]string{"match_id": match.ID, "reason": "rain"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var abandoned scoring.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &abandoned))
	assert.Equal(t, scoring.MatchAbandoned, abandoned.Status)
}

func TestLedgerHandlers(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	_, err := server.Ledger.Credit("u1", 30, "manual_adjustment", ledger.CauseRef{})
	require.NoError(t, err)

	t.Run("balance requires the identity header", func(t *testing.T) {
		rr := doJSON(t, server, "GET", "/ledger/balance", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("balance and history for the caller", func(t *testing.T) {
		rr := doJSON(t, server, "GET", "/ledger/balance", nil, map[string]string{"X-User-ID": "u1"})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"balance": 30}`, rr.Body.String())

		rr = doJSON(t, server, "GET", "/ledger/history", nil, map[string]string{"X-User-ID": "u1"})
		require.Equal(t, http.StatusOK, rr.Code)

		var records []ledger.PointsRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.EqualValues(t, 30, records[0].Amount)
	})

	t.Run("history respects the limit parameter", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := server.Ledger.Credit("u1", 1, "manual_adjustment", ledger.CauseRef{})
			require.NoError(t, err, fmt.Sprintf("extra credit %d", i))
		}
		rr := doJSON(t, server, "GET", "/ledger/history?limit=2", nil, map[string]string{"X-User-ID": "u1"})
		require.Equal(t, http.StatusOK, rr.Code)

		var records []ledger.PointsRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
		assert.Len(t, records, 2)
	})
}

func TestLeaderboardHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	_, err := server.Ledger.Credit("u1", 40, "event_settlement", ledger.CauseRef{})
	require.NoError(t, err)
	_, err = server.Ledger.Credit("u2", 10, "event_settlement", ledger.CauseRef{})
	require.NoError(t, err)

	rr := doJSON(t, server, "GET", "/leaderboard", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var players []player.Info
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &players))
	require.Len(t, players, 2)
	assert.Equal(t, "One", players[0].Nickname)
	assert.EqualValues(t, 40, players[0].TotalPoints)
}

func TestAnnounceLeaderboardHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	_, err := server.Ledger.Credit("u1", 40, "event_settlement", ledger.CauseRef{})
	require.NoError(t, err)

	rr := doJSON(t, server, "POST", "/leaderboard/announce", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var players []player.Info
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &players))
	require.Len(t, players, 2)
	assert.Equal(t, "One", players[0].Nickname)

	rr = doJSON(t, server, "GET", "/leaderboard/announce", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStatsHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	server.MetricsStore.Increment("registrations")
	server.MetricsStore.Increment("registrations")

	rr := doJSON(t, server, "GET", "/stats", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"registrations": 2}`, rr.Body.String())
}

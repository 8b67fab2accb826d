package scoring_test

import (
	"database/sql"
	"testing"

	"github.com/matchpoint-club/matchpoint/internal/apperror"
	"github.com/matchpoint-club/matchpoint/internal/database"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (scoring.Engine, *sql.DB, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO events (id, title, status, start_time, end_time, created_at, updated_at)
		VALUES ('e1', 'Club Night', 'ongoing', 1000, 2000, 0, 0)
	`)
	require.NoError(t, err)

	return scoring.New(db), db, teardown
}

func createLiveMatch(t *testing.T, e scoring.Engine, format scoring.Format) *scoring.Match {
	t.Helper()
	match, err := e.CreateMatch("e1", "Court 1", format,
		[]scoring.Player{{ID: "u1", Name: "One"}},
		[]scoring.Player{{ID: "u2", Name: "Two"}}, 1500)
	require.NoError(t, err)
	match, err = e.StartMatch(match.ID)
	require.NoError(t, err)
	return match
}

func TestCreateMatchValidation(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := e.CreateMatch("e1", "Court 1", scoring.Format{BestOf: 4, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u1"}}, []scoring.Player{{ID: "u2"}}, 0)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = e.CreateMatch("e1", "Court 1", scoring.Format{BestOf: 3, FinalSet: scoring.FinalSetTiebreak},
		nil, []scoring.Player{{ID: "u2"}}, 0)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = e.CreateMatch("e1", "", scoring.Format{BestOf: 3, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u1"}}, []scoring.Player{{ID: "u2"}}, 0)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestStartMatchTransitions(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()

	match, err := e.CreateMatch("e1", "Court 1", scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u1"}}, []scoring.Player{{ID: "u2"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchScheduled, match.Status)
	assert.Nil(t, match.Score)

	started, err := e.StartMatch(match.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchLive, started.Status)
	require.NotNil(t, started.Score)
	assert.Equal(t, scoring.SideTeam1, started.Score.Server)

	// A live match cannot be started again.
	_, err = e.StartMatch(match.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = e.StartMatch("ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRecordPointRequiresLiveMatch(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()

	match, err := e.CreateMatch("e1", "Court 1", scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u1"}}, []scoring.Player{{ID: "u2"}}, 0)
	require.NoError(t, err)

	_, _, err = e.RecordPoint(match.ID, scoring.SideTeam1)
	assert.ErrorIs(t, err, apperror.ErrMatchNotLive)
}

func TestRecordPointPersistsAcrossLoads(t *testing.T) {
	e, db, teardown := setupTestDB(t)
	defer teardown()
	match := createLiveMatch(t, e, scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak})

	for i := 0; i < 3; i++ {
		_, _, err := e.RecordPoint(match.ID, scoring.SideTeam1)
		require.NoError(t, err)
	}

	// A fresh engine over the same database sees the persisted state.
	reloaded, err := scoring.New(db).GetMatch(match.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Score)
	t1, t2 := reloaded.Score.GameDisplay()
	assert.Equal(t, "40", t1)
	assert.Equal(t, "0", t2)
}

func TestRecordPointEmitsResultExactlyOnce(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()
	match := createLiveMatch(t, e, scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak})

	var result *scoring.MatchResult
	// Six straight games: 24 points, only the last returns a result.
	for i := 0; i < 24; i++ {
		m, res, err := e.RecordPoint(match.ID, scoring.SideTeam2)
		require.NoError(t, err)
		if i < 23 {
			assert.Nil(t, res)
			assert.Equal(t, scoring.MatchLive, m.Status)
		} else {
			result = res
		}
	}

	require.NotNil(t, result)
	assert.Equal(t, match.ID, result.MatchID)
	assert.Equal(t, "e1", result.EventID)
	assert.Equal(t, scoring.SideTeam2, result.Winner)
	assert.Equal(t, "0-6", result.ScoreLine)

	// The completed match rejects further points.
	_, _, err := e.RecordPoint(match.ID, scoring.SideTeam1)
	assert.ErrorIs(t, err, apperror.ErrMatchAlreadyComplete)

	got, err := e.GetMatch(match.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchCompleted, got.Status)
	assert.Equal(t, scoring.SideTeam2, got.Winner)
	assert.NotZero(t, got.EndedAt)
}

func TestAbandon(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()
	match := createLiveMatch(t, e, scoring.Format{BestOf: 3, FinalSet: scoring.FinalSetTiebreak})

	got, err := e.Abandon(match.ID, "rain")
	require.NoError(t, err)
	assert.Equal(t, scoring.MatchAbandoned, got.Status)
	assert.Equal(t, "rain", got.AbandonReason)
	assert.Empty(t, got.Winner, "abandonment produces no winner")

	// Terminal: no points, no restart, no second abandonment.
	_, _, err = e.RecordPoint(match.ID, scoring.SideTeam1)
	assert.ErrorIs(t, err, apperror.ErrMatchNotLive)
	_, err = e.Abandon(match.ID, "again")
	assert.ErrorIs(t, err, apperror.ErrMatchNotLive)
}

func TestAbandonRequiresLiveMatch(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()

	match, err := e.CreateMatch("e1", "Court 1", scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u1"}}, []scoring.Player{{ID: "u2"}}, 0)
	require.NoError(t, err)

	_, err = e.Abandon(match.ID, "no-show")
	assert.ErrorIs(t, err, apperror.ErrMatchNotLive)
}

func TestListByEvent(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := e.CreateMatch("e1", "Court 2", scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u3"}}, []scoring.Player{{ID: "u4"}}, 1800)
	require.NoError(t, err)
	_, err = e.CreateMatch("e1", "Court 1", scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u1"}}, []scoring.Player{{ID: "u2"}}, 1500)
	require.NoError(t, err)

	matches, err := e.ListByEvent("e1")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Court 1", matches[0].Name, "ordered by scheduled time")
	assert.Equal(t, "Court 2", matches[1].Name)

	teams := matches[0].Team1
	require.Len(t, teams, 1)
	assert.Equal(t, "u1", teams[0].ID)

	empty, err := e.ListByEvent("other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDoublesMatch(t *testing.T) {
	e, _, teardown := setupTestDB(t)
	defer teardown()

	match, err := e.CreateMatch("e1", "Doubles", scoring.Format{BestOf: 1, FinalSet: scoring.FinalSetTiebreak},
		[]scoring.Player{{ID: "u1"}, {ID: "u2"}},
		[]scoring.Player{{ID: "u3"}, {ID: "u4"}}, 0)
	require.NoError(t, err)

	got, err := e.GetMatch(match.ID)
	require.NoError(t, err)
	assert.Len(t, got.Team1, 2)
	assert.Len(t, got.Team2, 2)
}

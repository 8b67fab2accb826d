package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/matchpoint-club/matchpoint/internal/metrics"
	"github.com/matchpoint-club/matchpoint/internal/notifier"
	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	n := NewNotifierWithAPI(nil, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := n.sendMessage(message, true)
	require.NoError(t, err)
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := n.sendMessage(message, false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.NotifSent())
	assert.Equal(t, 0, metrics.NotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	postMessageCalled := false
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := n.sendMessage(message, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 0, metrics.NotifSent())
	assert.Equal(t, 1, metrics.NotifFailed())
}

// Test one of the public methods to ensure it calls the private sender.
func TestSendEventPublished_CallsSender(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metrics)

	err := n.SendEventPublished("Friday Night Singles", 1000, 2000, false)
	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called via SendEventPublished")
}

func TestFormatMatchResult(t *testing.T) {
	match := &scoring.Match{
		Name: "Court 1",
		Team1: []scoring.Player{
			{ID: "u1", Name: "Player A"},
		},
		Team2: []scoring.Player{
			{ID: "u2", Name: "Player B"},
		},
	}
	result := &scoring.MatchResult{
		Winner:    scoring.SideTeam2,
		ScoreLine: "4-6 6-3 7-6(4)",
	}

	n := &Notifier{channelID: "C123"}
	msg := n.formatMatchResult(match, result)
	require.Len(t, msg.Blocks.BlockSet, 2)

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok, "First block should be a HeaderBlock")
	assert.Equal(t, "🎾 Match finished! 🎾", header.Text.Text)

	section, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok, "Second block should be a SectionBlock")
	assert.Contains(t, section.Text.Text, "Player B won! 🏆")
	assert.Contains(t, section.Text.Text, "Player A vs Player B: 4-6 6-3 7-6(4)")
}

func TestFormatEventSettled(t *testing.T) {
	n := &Notifier{channelID: "C123"}

	t.Run("lists standings in order", func(t *testing.T) {
		standings := []notifier.Standing{
			{Nickname: "Player A", Points: 50, Rank: 1},
			{Nickname: "Player B", Points: 30, Rank: 2},
			{Nickname: "Player C", Points: -5, Rank: 3},
		}

		msg := n.formatEventSettled("Club Open", standings)
		require.Len(t, msg.Blocks.BlockSet, 2)

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok)
		assert.Equal(t, "🏆 Club Open — final standings 🏆", header.Text.Text)

		section, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, section.Text.Text, "1. 🥇 Player A — +50 points")
		assert.Contains(t, section.Text.Text, "3. 🥉 Player C — -5 points")
	})

	t.Run("handles an empty settlement", func(t *testing.T) {
		msg := n.formatEventSettled("Club Open", nil)
		require.Len(t, msg.Blocks.BlockSet, 2)

		section, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "No participants were settled.", section.Text.Text)
	})
}

func TestFormatLeaderboard(t *testing.T) {
	n := &Notifier{channelID: "C123"}

	t.Run("displays leaderboard with players", func(t *testing.T) {
		players := []player.Info{
			{Nickname: "Player A", TotalPoints: 120},
			{Nickname: "Player B", TotalPoints: 80},
			{Nickname: "Player C", TotalPoints: 45},
			{Nickname: "Player D", TotalPoints: 10},
		}

		msg := n.formatLeaderboard(players)
		require.Len(t, msg.Blocks.BlockSet, 5, "Expected 5 blocks (header + 4 players)")

		header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
		require.True(t, ok)
		assert.Equal(t, "🏆 Points Leaderboard 🏆", header.Text.Text)

		player1, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, player1.Text.Text, "1. 🥇 Player A")
		assert.Contains(t, player1.Text.Text, "> Points: 120")

		player4, ok := msg.Blocks.BlockSet[4].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Contains(t, player4.Text.Text, "4.  Player D")
	})

	t.Run("displays message when no players have points", func(t *testing.T) {
		msg := n.formatLeaderboard([]player.Info{})
		require.Len(t, msg.Blocks.BlockSet, 2, "Expected 2 blocks (header + message)")

		message, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		require.True(t, ok)
		assert.Equal(t, "No points awarded yet. Go play some events!", message.Text.Text)
	})
}

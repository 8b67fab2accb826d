package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matchpoint-club/matchpoint/internal/metrics"
	"github.com/matchpoint-club/matchpoint/internal/notifier"
	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendEventPublished(title string, startTime, endTime int64, dryRun bool) error {
	msg := s.formatEventPublished(title, startTime, endTime)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendMatchResult(match *scoring.Match, result *scoring.MatchResult, dryRun bool) error {
	msg := s.formatMatchResult(match, result)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendEventSettled(title string, standings []notifier.Standing, dryRun bool) error {
	msg := s.formatEventSettled(title, standings)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(players []player.Info, dryRun bool) error {
	msg := s.formatLeaderboard(players)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// formatEventPublished creates the Slack message for a freshly published event using Block Kit.
func (s *Notifier) formatEventPublished(title string, startTime, endTime int64) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🎾 Registration open! 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("%s\nStarts: %s\nEnds: %s",
		title,
		formatTime(startTime),
		formatTime(endTime),
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatMatchResult creates the Slack message for a finished match using Block Kit.
func (s *Notifier) formatMatchResult(match *scoring.Match, result *scoring.MatchResult) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🎾 Match finished! 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	winners := teamNames(match.Team1)
	if result.Winner == scoring.SideTeam2 {
		winners = teamNames(match.Team2)
	}
	resultText := fmt.Sprintf("%s\n%s won! 🏆\n%s vs %s: %s",
		match.Name,
		winners,
		teamNames(match.Team1),
		teamNames(match.Team2),
		result.ScoreLine,
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatEventSettled creates the Slack message summarizing a settled event.
func (s *Notifier) formatEventSettled(title string, standings []notifier.Standing) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🏆 %s — final standings 🏆", title), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(standings) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No participants were settled.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	var lines []string
	for _, st := range standings {
		lines = append(lines, fmt.Sprintf("%d. %s %s — %+d points", st.Rank, medal(st.Rank), st.Nickname, st.Points))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the points leaderboard.
func (s *Notifier) formatLeaderboard(players []player.Info) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Points Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No points awarded yet. Go play some events!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, p := range players {
		rank := i + 1
		playerText := fmt.Sprintf("%d. %s %s\n> Points: %d", rank, medal(rank), p.Nickname, p.TotalPoints)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playerText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

func teamNames(players []scoring.Player) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return "?"
	}
	return strings.Join(names, " & ")
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return ""
}

func formatTime(unix int64) string {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		return time.Unix(unix, 0).Format("Monday 02 Jan, 15:04")
	}
	return time.Unix(unix, 0).In(loc).Format("Monday 02 Jan, 15:04")
}

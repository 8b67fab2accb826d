package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(signInCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(recordPointCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(leaderboardCmd)

	leaderboardCmd.AddCommand(leaderboardAnnounceCmd)

	eventsCmd.AddCommand(eventsCreateCmd)
	eventsCmd.AddCommand(eventsPublishCmd)
	eventsCmd.AddCommand(eventsStartCmd)
	eventsCmd.AddCommand(eventsCancelCmd)
	eventsCmd.AddCommand(eventsEndCmd)
	eventsCmd.AddCommand(eventsRosterCmd)

	eventsCreateCmd.Flags().StringVar(&eventTitle, "title", "", "Event title")
	eventsCreateCmd.Flags().StringVar(&eventLocation, "location", "", "Event location")
	eventsCreateCmd.Flags().Int64Var(&eventStart, "start", 0, "Start time (unix seconds)")
	eventsCreateCmd.Flags().Int64Var(&eventEnd, "end", 0, "End time (unix seconds)")
	eventsCreateCmd.Flags().IntVar(&eventMax, "max", 0, "Max participants (0 for unlimited)")

	eventsEndCmd.Flags().StringVar(&resultsJSON, "results", "{}", `Settlement results, e.g. '{"u1":{"points":50,"rank":1}}'`)

	matchesCmd.AddCommand(matchesStartCmd)
	matchesCmd.AddCommand(matchesAbandonCmd)
	matchesAbandonCmd.Flags().StringVar(&abandonReason, "reason", "", "Why the match was abandoned")
}

var (
	eventTitle    string
	eventLocation string
	eventStart    int64
	eventEnd      int64
	eventMax      int
	resultsJSON   string
	abandonReason string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Get the persistent application counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/stats")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage events",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/events")
	},
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft event",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"title":      eventTitle,
			"location":   eventLocation,
			"start_time": eventStart,
			"end_time":   eventEnd,
		}
		if eventMax > 0 {
			body["max_participants"] = eventMax
		}
		return performPostRequest("/events", body)
	},
}

var eventsPublishCmd = &cobra.Command{
	Use:   "publish <event-id>",
	Short: "Publish a draft event and announce it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/events/publish", map[string]string{"event_id": args[0]})
	},
}

var eventsStartCmd = &cobra.Command{
	Use:   "start <event-id>",
	Short: "Move a published event to ongoing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/events/start", map[string]string{"event_id": args[0]})
	},
}

var eventsCancelCmd = &cobra.Command{
	Use:   "cancel <event-id>",
	Short: "Cancel an event and its registrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/events/cancel", map[string]string{"event_id": args[0]})
	},
}

var eventsEndCmd = &cobra.Command{
	Use:   "end <event-id>",
	Short: "End an ongoing event and settle points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var results map[string]any
		if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
			return fmt.Errorf("invalid --results JSON: %w", err)
		}
		return performPostRequest("/events/end", map[string]any{
			"event_id": args[0],
			"results":  results,
		})
	},
}

var eventsRosterCmd = &cobra.Command{
	Use:   "roster <event-id>",
	Short: "List an event's registrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/events/roster?event_id=" + args[0])
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <event-id>",
	Short: "Register the current user (--user) for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/register", map[string]string{"event_id": args[0]})
	},
}

var signInCmd = &cobra.Command{
	Use:   "sign-in <event-id>",
	Short: "Sign the current user (--user) in at an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/sign-in", map[string]string{"event_id": args[0], "method": "manual"})
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches <event-id>",
	Short: "List an event's matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches?event_id=" + args[0])
	},
}

var matchesStartCmd = &cobra.Command{
	Use:   "start <match-id>",
	Short: "Start a scheduled match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/matches/start", map[string]string{"match_id": args[0]})
	},
}

var matchesAbandonCmd = &cobra.Command{
	Use:   "abandon <match-id>",
	Short: "Abandon a live match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/matches/abandon", map[string]string{
			"match_id": args[0],
			"reason":   abandonReason,
		})
	},
}

var recordPointCmd = &cobra.Command{
	Use:   "record-point <match-id> <team1|team2>",
	Short: "Record one point for a side of a live match",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/matches/record-point", map[string]string{
			"match_id": args[0],
			"winner":   args[1],
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current user's (--user) points balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/ledger/balance")
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the points leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard")
	},
}

var leaderboardAnnounceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Post the current leaderboard to the club channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/leaderboard/announce", nil)
	},
}

func performGetRequest(endpoint string) error {
	req, err := http.NewRequest(http.MethodGet, buildURL(endpoint), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return performRequest(req)
}

func performPostRequest(endpoint string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, buildURL(endpoint), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return performRequest(req)
}

func buildURL(endpoint string) string {
	url := host + endpoint
	if dryRun {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		url += sep + "dry_run=" + strconv.FormatBool(dryRun)
	}
	return url
}

func performRequest(req *http.Request) error {
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	fmt.Printf("Making request to %s\n", req.URL)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}

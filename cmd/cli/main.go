package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	userID string
	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "matchpoint-cli",
	Short: "A CLI to interact with the matchpoint server",
	Long: `A command-line interface for making requests to the various endpoints
of the matchpoint application.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "The user ID sent as X-User-ID on identity-scoped endpoints")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Skip outbound notifications")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

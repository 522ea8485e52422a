// Command hunter is a terminal client for Heritage Hunter.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"heritage_hunter/internal/adapters/observability"
	"heritage_hunter/internal/shared"
	"heritage_hunter/internal/tracker"
)

var (
	baseURL string
	session string
	csrf    string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hunter",
	Short: "Track your visits to three-star heritage pubs",
	Long: `hunter talks to a Heritage Hunter server with your browser session
(sessionid and csrftoken cookies) to list pubs, record or remove visits
and show how far you are through the list.`,
	SilenceUsage: true,
}

func init() {
	cfg := shared.Load()
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", cfg.BaseURL, "server URL (HH_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&session, "session", cfg.Session, "sessionid cookie (HH_SESSION)")
	rootCmd.PersistentFlags().StringVar(&csrf, "csrf", cfg.CSRF, "csrftoken cookie (HH_CSRF)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log skipped map markers and requests")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// load builds a controller bound to a terminal display and fetches the dataset.
func load(ctx context.Context) (*tracker.Controller, *terminal, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := observability.NewLoggerTo(os.Stderr, observability.LogOptions{
		Env: "dev", Level: level, TimeFormat: time.Kitchen,
	})

	if session == "" {
		return nil, nil, fmt.Errorf("not logged in: set --session or HH_SESSION")
	}
	client := tracker.NewClient(baseURL, session, csrf)
	term := &terminal{out: os.Stdout}
	c := tracker.NewController(client, term, tracker.Options{
		Authenticated: true,
		Logger:        logger,
	})
	if err := c.Load(ctx); err != nil {
		return nil, nil, err
	}
	return c, term, nil
}

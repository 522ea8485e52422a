package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"heritage_hunter/internal/tracker"
)

var searchQuery string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pubs alphabetically, optionally filtered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, term, err := load(cmd.Context())
		if err != nil {
			return err
		}
		c.Search(searchQuery)
		term.printList()
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <pub>",
	Short: "Show one pub with your review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, term, err := load(cmd.Context())
		if err != nil {
			return err
		}
		key, err := resolve(c.View(), args[0])
		if err != nil {
			return err
		}
		c.Search(args[0])
		c.Click(key, tracker.TargetPub)
		term.printList()
		return nil
	},
}

var (
	visitDate   string
	visitReview string
)

var visitCmd = &cobra.Command{
	Use:   "visit <pub>",
	Short: "Record a visit (a second visit adds a newer review)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, term, err := load(cmd.Context())
		if err != nil {
			return err
		}
		key, err := resolve(c.View(), args[0])
		if err != nil {
			return err
		}
		c.Click(key, tracker.TargetPub)
		if err := c.SaveVisit(cmd.Context(), key, visitDate, visitReview); err != nil {
			return err
		}
		c.Search(args[0])
		term.printList()
		return printProgress(c.View().Progress, 0)
	},
}

var unvisitCmd = &cobra.Command{
	Use:   "unvisit <pub>",
	Short: "Remove your visit and reviews for a pub",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := load(cmd.Context())
		if err != nil {
			return err
		}
		key, err := resolve(c.View(), args[0])
		if err != nil {
			return err
		}
		if err := c.DeleteVisit(cmd.Context(), key); err != nil {
			return err
		}
		return printProgress(c.View().Progress, 0)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show how many listed pubs you have visited",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := load(cmd.Context())
		if err != nil {
			return err
		}
		return printProgress(c.View().Progress, 25*time.Millisecond)
	},
}

func init() {
	listCmd.Flags().StringVarP(&searchQuery, "search", "s", "", "filter by name or address")
	visitCmd.Flags().StringVar(&visitDate, "date", "", "visit date, YYYY-MM-DD")
	visitCmd.Flags().StringVar(&visitReview, "review", "", fmt.Sprintf("review text, up to %d characters", tracker.MaxContent))
	rootCmd.AddCommand(listCmd, showCmd, visitCmd, unvisitCmd, progressCmd)
}

const barScale = 1000

// printProgress fills a bar up to the visited fraction, one frame per tick.
func printProgress(p tracker.Progress, tick time.Duration) error {
	bar := progressbar.NewOptions(barScale,
		progressbar.OptionSetDescription("Pubs visited"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
	)
	frames := 1
	if tick > 0 {
		frames = 20
	}
	for _, lvl := range tracker.NewFillAnimation(0, p.Fraction(), frames).Levels() {
		if err := bar.Set(int(lvl * barScale)); err != nil {
			return err
		}
		if tick > 0 {
			time.Sleep(tick)
		}
	}
	fmt.Println()
	fmt.Println(p.String())
	return nil
}

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/scoring"
	"github.com/abhisek/medsim/internal/screens/history"
	"github.com/abhisek/medsim/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past consults, or the timeline of one with --session",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		sessionID, _ := cmd.Flags().GetString("session")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QuerySessionEvents(cmd.Context(), store.QueryOpts{
			Limit:     limit,
			SessionID: sessionID,
		})
		if err != nil {
			return fmt.Errorf("query session events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No consults recorded yet.")
			return nil
		}

		if sessionID != "" {
			printTimeline(events)
			return nil
		}

		fmt.Printf("%-19s  %-36s  %-28s  %5s  %s\n", "Last Activity", "Session", "Case", "Turns", "Result")
		fmt.Println(strings.Repeat("─", 104))
		for _, c := range history.Group(events) {
			last := c.Latest()
			result := "open"
			if stars, ok := c.Debriefed(); ok {
				result = scoring.StarBar(stars)
			} else if last.Done {
				result = "closed"
			}
			fmt.Printf("%-19s  %-36s  %-28s  %5d  %s\n",
				last.Timestamp.Local().Format("2006-01-02 15:04:05"),
				c.SessionID, truncate(c.CaseID, 28), last.Turns, result)
		}
		return nil
	},
}

// printTimeline prints one session oldest first.
func printTimeline(events []store.SessionEvent) {
	events = slices.Clone(events)
	slices.Reverse(events)
	fmt.Printf("Session %s  (%s)\n", events[0].SessionID, events[0].CaseID)
	fmt.Println(strings.Repeat("─", 72))
	for _, e := range events {
		line := fmt.Sprintf("%s  %-7s  turn=%d stage=%d hints=%d reveals=%d",
			e.Timestamp.Local().Format("15:04:05"), e.Action, e.Turns, e.Stage, e.HintsUsed, e.RevealsUsed)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Println(line)
	}
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 200, "Number of journal entries to read")
	historyCmd.Flags().String("session", "", "Show the timeline of one session")
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/scoring"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show or reset the service record",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show best stars per specialty and level, and the current rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ledger, err := progress.NewLedger(cmd.Context(), st.ProgressRepo())
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		catalog, err := cases.Default()
		if err != nil {
			return fmt.Errorf("load case catalog: %w", err)
		}

		standing := ledger.Standing()
		fmt.Printf("Rank:   %s\n", standing.Rank.DisplayName())
		fmt.Printf("Stars:  %d / %d", standing.Total, progress.GlobalCap)
		if standing.Total < progress.GlobalCap {
			fmt.Printf("  (next rank at %d)", standing.NextThreshold)
		}
		fmt.Println()
		fmt.Println()

		fmt.Printf("%-16s", "Specialty")
		var levels []int
		for _, sp := range catalog.Specialties() {
			for _, lvl := range catalog.Levels(sp) {
				if !slices.Contains(levels, lvl) {
					levels = append(levels, lvl)
				}
			}
		}
		slices.Sort(levels)
		for _, lvl := range levels {
			fmt.Printf("  L%-4d", lvl)
		}
		fmt.Println()
		fmt.Println(strings.Repeat("─", 16+7*len(levels)))
		for _, sp := range catalog.Specialties() {
			fmt.Printf("%-16s", sp)
			for _, lvl := range levels {
				fmt.Printf("  %-5s", scoring.StarBar(ledger.Best(progress.Key{Specialty: sp, Level: lvl})))
			}
			fmt.Println()
		}
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all stars and return to Intern",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if !yes {
			fmt.Print("Erase all progress? Type 'yes' to confirm: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.TrimSpace(line) != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		ledger, err := progress.NewLedger(cmd.Context(), st.ProgressRepo())
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		if err := ledger.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset progress: %w", err)
		}
		fmt.Println("Progress reset.")
		return nil
	},
}

func init() {
	progressResetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressResetCmd)
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/drill"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Inspect and check the case catalog",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		specialty, _ := cmd.Flags().GetString("specialty")
		level, _ := cmd.Flags().GetInt("level")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		if difficulty != "" && !cases.Difficulty(difficulty).Valid() {
			return fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", difficulty)
		}

		catalog, err := cases.Default()
		if err != nil {
			return fmt.Errorf("load case catalog: %w", err)
		}

		fmt.Printf("%-28s  %-16s  %5s  %-6s  %s\n", "ID", "Specialty", "Level", "Band", "Complaint")
		fmt.Println(strings.Repeat("─", 96))
		shown := 0
		for _, c := range catalog.All() {
			if specialty != "" && !strings.EqualFold(c.Specialty, specialty) {
				continue
			}
			if level > 0 && c.Level != level {
				continue
			}
			if difficulty != "" && string(c.Difficulty) != difficulty {
				continue
			}
			fmt.Printf("%-28s  %-16s  %5d  %-6s  %s\n",
				c.ID, c.Specialty, c.Level, c.Difficulty, truncate(c.ChiefComplaint, 36))
			shown++
		}
		fmt.Println(strings.Repeat("─", 96))
		fmt.Printf("%d of %d cases (catalog %s)\n", shown, catalog.Len(), catalog.Version())
		return nil
	},
}

var casesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Play a scripted consult against every case and report mismatches",
	RunE: func(cmd *cobra.Command, args []string) error {
		parallel, _ := cmd.Flags().GetInt("parallel")

		catalog, err := cases.Default()
		if err != nil {
			return fmt.Errorf("load case catalog: %w", err)
		}

		opts := drill.DefaultOptions()
		opts.Parallel = parallel
		results, err := drill.Run(cmd.Context(), catalog, opts)
		if err != nil {
			return fmt.Errorf("drill: %w", err)
		}

		for _, r := range results {
			mark := "✓"
			if !r.Passed {
				mark = "✗"
			}
			line := fmt.Sprintf("%s %-28s  turns=%d stars=%d path=%s", mark, r.CaseID, r.Turns, r.Stars, r.Path)
			if r.Reason != "" {
				line += "  (" + r.Reason + ")"
			}
			fmt.Println(line)
		}

		failed := drill.Failed(results)
		fmt.Printf("\n%d/%d cases passed\n", len(results)-len(failed), len(results))
		if len(failed) > 0 {
			return fmt.Errorf("%d cases failed the drill", len(failed))
		}
		return nil
	},
}

func init() {
	casesListCmd.Flags().String("specialty", "", "Only cases in this specialty")
	casesListCmd.Flags().Int("level", 0, "Only cases at this level")
	casesListCmd.Flags().String("difficulty", "", "Only cases in this band: easy, medium, hard")
	casesCheckCmd.Flags().Int("parallel", 4, "Cases drilled at once")

	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesCheckCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/cases"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := cases.Default()
		if err != nil {
			return err
		}
		fmt.Println("medsim", version)
		fmt.Printf("catalog %s (%d cases)\n", catalog.Version(), catalog.Len())
		return nil
	},
}

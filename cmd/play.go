package cmd

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/app"
	"github.com/abhisek/medsim/internal/screens/home"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the interactive consult console",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// runPlay builds the runtime and launches the TUI. Logs go to a file so
// they do not tear the alt-screen.
func runPlay(cmd *cobra.Command) error {
	logFile, err := openLogFile()
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	initLogging(cmd, logFile)

	rt, err := buildRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	seed := uint64(time.Now().UnixNano())
	return app.Run(home.Options{
		Engine:  rt.engine,
		History: rt.store.EventRepo(),
		Online:  rt.online,
		Rand:    rand.New(rand.NewPCG(seed, seed>>1)),
	})
}

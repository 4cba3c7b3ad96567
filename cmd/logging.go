package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/store"
)

// initLogging points the default slog logger at w. The TUI passes a file
// under the data dir; every other command logs to stderr.
func initLogging(cmd *cobra.Command, w io.Writer) {
	raw, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		level = slog.LevelInfo
	}
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// openLogFile opens medsim.log in the data dir for appending.
func openLogFile() (*os.File, error) {
	dir, err := store.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return os.OpenFile(filepath.Join(dir, "medsim.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/medsim/internal/mcpserver"
	"github.com/abhisek/medsim/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the consult API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if env := os.Getenv("MEDSIM_ADDR"); env != "" && !cmd.Flags().Changed("addr") {
			addr = env
		}

		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(rt.engine, nil).ListenAndServe(ctx, addr)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the consult tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return mcpserver.NewServer(rt.engine, version).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "Listen address (overrides MEDSIM_ADDR env var)")
}

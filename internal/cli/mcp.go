package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	ccwmcp "github.com/valter-silva-au/cc-workspace/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the ccw MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ccw MCP server on stdio",
	Long: `Start the ccw MCP server on stdio transport.

The server exposes read-only workspace state as MCP tools that agents can
call: session_list, session_status, sync_status, recent_events. Closing a
session is not exposed; it needs a human at the terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Versions == nil {
			return fmt.Errorf("version store not initialized")
		}

		srv := ccwmcp.NewServer(ccwmcp.Config{
			Sessions:        Sessions,
			Versions:        Versions,
			EventLog:        EventLog,
			OrchestratorDir: OrchestratorDir,
			PackageVersion:  PackageVersion,
			Version:         appVersion,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

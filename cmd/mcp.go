package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/countdown-cli/internal/adapters/mcp"
	"github.com/xvierd/countdown-cli/internal/services"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server communicates over stdio and provides tools to start, stop and
inspect the countdown and to list past runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := setupSignalHandler()
		defer stop()

		runner, state := newRunner()
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = runner.Run(runCtx) }()

		err := runner.Do(ctx, func(ctx context.Context, c *services.CountdownController) error {
			restoreHeadless(ctx, c)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to start countdown runner: %w", err)
		}

		// stdout carries the protocol; status goes to the log.
		app.log.Info("MCP server listening on stdio")

		server := mcp.NewServer(state, Version)
		err = server.Start(runCtx)

		cancel()
		<-runner.Done()
		if err != nil && runCtx.Err() == nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}

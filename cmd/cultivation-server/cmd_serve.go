package main

import (
	"github.com/spf13/cobra"

	"github.com/rsned/cultivation-server/internal/cultivation/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout. Every calculator operation is
exposed as a tool: calculate, coefficients, presets, schemes, comparison
and the current selection.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv := mcp.NewServer(a.engine, a.syncer, version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/rsned/cultivation-server/internal/cultivation/api"
)

var httpFlags struct {
	addr string
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the REST API and the live-recompute WebSocket",
	Args:  cobra.NoArgs,
	RunE:  runHTTP,
}

func init() {
	httpCmd.Flags().StringVar(&httpFlags.addr, "addr", ":8080", "Listen address")
}

func runHTTP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return api.NewHandler(a.engine, a.syncer).Serve(ctx, httpFlags.addr)
}

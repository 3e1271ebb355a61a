package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsned/cultivation-server/internal/cultivation/report"
)

var presetsFlags struct {
	markdown bool
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in and imported presets",
	Args:  cobra.NoArgs,
	RunE:  runPresets,
}

func init() {
	presetsCmd.Flags().BoolVar(&presetsFlags.markdown, "markdown", false, "Render the table as Markdown")
}

func runPresets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	list, err := a.engine.ListPresets(ctx)
	if err != nil {
		return err
	}
	mode := report.ASCII
	if presetsFlags.markdown {
		mode = report.Markdown
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.PresetTable(list, mode))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsned/cultivation-server/internal/cultivation/report"
)

var compareFlags struct {
	markdown bool
}

var compareCmd = &cobra.Command{
	Use:   "compare [scheme-id...]",
	Short: "Compare saved schemes side by side (all schemes when no ids are given)",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().BoolVar(&compareFlags.markdown, "markdown", false, "Render the table as Markdown")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ids := args
	if len(ids) == 0 {
		schemes, err := a.engine.ListSchemes(ctx)
		if err != nil {
			return err
		}
		for _, sc := range schemes {
			ids = append(ids, sc.ID)
		}
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No saved schemes.")
		return nil
	}

	rows, err := a.engine.CompareSchemes(ctx, ids)
	if err != nil {
		return err
	}
	mode := report.ASCII
	if compareFlags.markdown {
		mode = report.Markdown
	}
	fmt.Fprintln(out, report.CompareTable(rows, mode))
	return nil
}

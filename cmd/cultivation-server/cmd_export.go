package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportFlags struct {
	out string
}

var exportCmd = &cobra.Command{
	Use:   "export <scheme-id>",
	Short: "Export a saved scheme as portable JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlags.out, "out", "o", "", "Output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if exportFlags.out != "" {
		if err := a.syncer.ExportSchemeToFile(ctx, args[0], exportFlags.out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], exportFlags.out)
		return nil
	}

	data, err := a.syncer.ExportScheme(ctx, args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

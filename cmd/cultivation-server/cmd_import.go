package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var importFlags struct {
	presets string
	schemes string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a YAML preset catalogue and/or exported scheme JSON",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFlags.presets, "presets", "", "YAML preset catalogue")
	f.StringVar(&importFlags.schemes, "schemes", "", "Exported scheme JSON (object or array)")
}

func runImport(cmd *cobra.Command, _ []string) error {
	if importFlags.presets == "" && importFlags.schemes == "" {
		return errors.New("nothing to import: pass --presets and/or --schemes")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	if importFlags.presets != "" {
		n, err := a.syncer.ImportPresetsFromFile(ctx, importFlags.presets)
		if err != nil {
			return fmt.Errorf("importing presets: %w", err)
		}
		fmt.Fprintf(out, "Imported %d preset(s) from %s\n", n, importFlags.presets)
	}
	if importFlags.schemes != "" {
		schemes, err := a.syncer.ImportSchemesFromFile(ctx, importFlags.schemes)
		if err != nil {
			return fmt.Errorf("importing schemes: %w", err)
		}
		for _, sc := range schemes {
			fmt.Fprintf(out, "Imported scheme %s (%s)\n", sc.ID, sc.Name)
		}
	}
	return nil
}

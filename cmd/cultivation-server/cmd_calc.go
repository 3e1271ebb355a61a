package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rsned/cultivation-server/internal/cultivation/report"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

var calcFlags struct {
	preset     string
	scheme     string
	paramsFile string
	save       string
	markdown   bool
	json       bool
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Walk the ladder and print stage, summary and alert tables",
	Long: `Resolves a preset (or saved scheme), optionally replaced by the params and
resource sections of a YAML file, runs the ladder and prints the result.
Without --preset or --scheme the current selection is used.`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

func init() {
	f := calcCmd.Flags()
	f.StringVar(&calcFlags.preset, "preset", "", "Preset id")
	f.StringVar(&calcFlags.scheme, "scheme", "", "Saved scheme id (wins over --preset)")
	f.StringVar(&calcFlags.paramsFile, "params-file", "", "YAML file with params and/or resource sections")
	f.StringVar(&calcFlags.save, "save", "", "Save the configuration as a scheme with this name")
	f.BoolVar(&calcFlags.markdown, "markdown", false, "Render tables as Markdown")
	f.BoolVar(&calcFlags.json, "json", false, "Print the raw response as JSON")
	calcCmd.MarkFlagsMutuallyExclusive("markdown", "json")
}

// paramsFile is the YAML layout accepted by --params-file.
type paramsFile struct {
	Params   *cultivation.Params         `yaml:"params"`
	Resource *cultivation.ResourceConfig `yaml:"resource"`
}

func loadParamsFile(path string) (*paramsFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening params file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var pf paramsFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("parsing params file: %w", err)
	}
	return &pf, nil
}

func runCalc(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	req := cultivation.CalculateRequest{
		PresetID: calcFlags.preset,
		SchemeID: calcFlags.scheme,
	}
	if calcFlags.paramsFile != "" {
		pf, err := loadParamsFile(calcFlags.paramsFile)
		if err != nil {
			return err
		}
		req.Params = pf.Params
		req.Resource = pf.Resource
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	resp, err := a.engine.Calculate(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if calcFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		if len(resp.Errors) > 0 {
			return errors.New("invalid parameters")
		}
		return nil
	}

	if len(resp.Errors) > 0 {
		fmt.Fprintln(out, "Invalid parameters:")
		for _, e := range resp.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return fmt.Errorf("invalid parameters: %s", strings.Join(resp.Errors, "; "))
	}

	mode := report.ASCII
	if calcFlags.markdown {
		mode = report.Markdown
	}
	if err := report.WriteResult(out, resp.Result, mode); err != nil {
		return err
	}

	if calcFlags.save != "" {
		sc, err := a.engine.SaveScheme(ctx, cultivation.SaveSchemeRequest{Name: calcFlags.save, CalculateRequest: req})
		if err != nil {
			return fmt.Errorf("saving scheme: %w", err)
		}
		fmt.Fprintf(out, "Saved scheme %s (%s)\n", sc.ID, sc.Name)
	}
	return nil
}

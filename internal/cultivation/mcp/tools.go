package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// --- Tool input/output types ---

type validateOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type emptyInput struct{}

type listPresetsOutput struct {
	Presets []cultivation.Preset `json:"presets"`
}

type saveSchemeInput struct {
	Name          string                      `json:"name" jsonschema:"scheme name"`
	PresetID      string                      `json:"preset_id,omitempty" jsonschema:"base preset id (default: current selection)"`
	SchemeID      string                      `json:"scheme_id,omitempty" jsonschema:"base scheme id, wins over preset_id"`
	Params        *cultivation.Params         `json:"params,omitempty" jsonschema:"explicit params replacing the base params"`
	Resource      *cultivation.ResourceConfig `json:"resource,omitempty" jsonschema:"explicit resource config replacing the base resource config"`
	Overrides     *cultivation.Overrides      `json:"overrides,omitempty" jsonschema:"per-field overrides applied last"`
	IncludeResult bool                        `json:"include_result,omitempty" jsonschema:"store the calculation result with the scheme"`
}

type listSchemesOutput struct {
	Schemes []cultivation.Scheme `json:"schemes"`
}

type schemeIDInput struct {
	ID string `json:"id" jsonschema:"scheme id"`
}

type renameSchemeInput struct {
	ID   string `json:"id" jsonschema:"scheme id"`
	Name string `json:"name" jsonschema:"new scheme name"`
}

type okOutput struct {
	OK bool `json:"ok"`
}

type compareSchemesInput struct {
	IDs []string `json:"ids" jsonschema:"scheme ids to compare, in display order"`
}

type compareSchemesOutput struct {
	Rows []cultivation.CompareRow `json:"rows"`
}

type importSchemesInput struct {
	Data string `json:"data" jsonschema:"exported scheme JSON: a single scheme object or an array of them"`
}

type setCurrentInput struct {
	PresetID  string                 `json:"preset_id,omitempty" jsonschema:"preset id (default: mortal)"`
	Overrides *cultivation.Overrides `json:"overrides,omitempty" jsonschema:"per-field overrides kept with the selection"`
}

// --- Tool handlers ---

func (s *Server) handleCalculate(ctx context.Context, _ *sdkmcp.CallToolRequest, input cultivation.CalculateRequest) (*sdkmcp.CallToolResult, cultivation.CalculateResponse, error) {
	resp, err := s.engine.Calculate(ctx, input)
	if err != nil {
		return nil, cultivation.CalculateResponse{}, fmt.Errorf("calculate: %w", err)
	}
	return nil, *resp, nil
}

func (s *Server) handleValidate(ctx context.Context, _ *sdkmcp.CallToolRequest, input cultivation.CalculateRequest) (*sdkmcp.CallToolResult, validateOutput, error) {
	errs, err := s.engine.Validate(ctx, input)
	if err != nil {
		return nil, validateOutput{}, fmt.Errorf("validate_params: %w", err)
	}
	if errs == nil {
		errs = []string{}
	}
	return nil, validateOutput{Valid: len(errs) == 0, Errors: errs}, nil
}

func (s *Server) handleCoefficients(ctx context.Context, _ *sdkmcp.CallToolRequest, input cultivation.CalculateRequest) (*sdkmcp.CallToolResult, cultivation.CoefficientsResponse, error) {
	resp, err := s.engine.Coefficients(ctx, input)
	if err != nil {
		return nil, cultivation.CoefficientsResponse{}, fmt.Errorf("coefficients: %w", err)
	}
	return nil, *resp, nil
}

func (s *Server) handleListPresets(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, listPresetsOutput, error) {
	list, err := s.engine.ListPresets(ctx)
	if err != nil {
		return nil, listPresetsOutput{}, fmt.Errorf("list_presets: %w", err)
	}
	if list == nil {
		list = []cultivation.Preset{}
	}
	return nil, listPresetsOutput{Presets: list}, nil
}

func (s *Server) handleSaveScheme(ctx context.Context, _ *sdkmcp.CallToolRequest, input saveSchemeInput) (*sdkmcp.CallToolResult, cultivation.Scheme, error) {
	sc, err := s.engine.SaveScheme(ctx, cultivation.SaveSchemeRequest{
		Name: input.Name,
		CalculateRequest: cultivation.CalculateRequest{
			PresetID:  input.PresetID,
			SchemeID:  input.SchemeID,
			Params:    input.Params,
			Resource:  input.Resource,
			Overrides: input.Overrides,
		},
		IncludeResult: input.IncludeResult,
	})
	if err != nil {
		return nil, cultivation.Scheme{}, fmt.Errorf("save_scheme: %w", err)
	}
	return nil, *sc, nil
}

func (s *Server) handleListSchemes(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, listSchemesOutput, error) {
	list, err := s.engine.ListSchemes(ctx)
	if err != nil {
		return nil, listSchemesOutput{}, fmt.Errorf("list_schemes: %w", err)
	}
	if list == nil {
		list = []cultivation.Scheme{}
	}
	return nil, listSchemesOutput{Schemes: list}, nil
}

func (s *Server) handleGetScheme(ctx context.Context, _ *sdkmcp.CallToolRequest, input schemeIDInput) (*sdkmcp.CallToolResult, cultivation.Scheme, error) {
	sc, err := s.engine.GetScheme(ctx, input.ID)
	if err != nil {
		return nil, cultivation.Scheme{}, fmt.Errorf("get_scheme: %w", err)
	}
	return nil, *sc, nil
}

func (s *Server) handleRenameScheme(ctx context.Context, _ *sdkmcp.CallToolRequest, input renameSchemeInput) (*sdkmcp.CallToolResult, okOutput, error) {
	if err := s.engine.RenameScheme(ctx, input.ID, input.Name); err != nil {
		return nil, okOutput{}, fmt.Errorf("rename_scheme: %w", err)
	}
	return nil, okOutput{OK: true}, nil
}

func (s *Server) handleDeleteScheme(ctx context.Context, _ *sdkmcp.CallToolRequest, input schemeIDInput) (*sdkmcp.CallToolResult, okOutput, error) {
	if err := s.engine.DeleteScheme(ctx, input.ID); err != nil {
		return nil, okOutput{}, fmt.Errorf("delete_scheme: %w", err)
	}
	return nil, okOutput{OK: true}, nil
}

func (s *Server) handleCompareSchemes(ctx context.Context, _ *sdkmcp.CallToolRequest, input compareSchemesInput) (*sdkmcp.CallToolResult, compareSchemesOutput, error) {
	rows, err := s.engine.CompareSchemes(ctx, input.IDs)
	if err != nil {
		return nil, compareSchemesOutput{}, fmt.Errorf("compare_schemes: %w", err)
	}
	if rows == nil {
		rows = []cultivation.CompareRow{}
	}
	return nil, compareSchemesOutput{Rows: rows}, nil
}

func (s *Server) handleExportScheme(ctx context.Context, _ *sdkmcp.CallToolRequest, input schemeIDInput) (*sdkmcp.CallToolResult, cultivation.SchemeExport, error) {
	ex, err := s.engine.ExportScheme(ctx, input.ID)
	if err != nil {
		return nil, cultivation.SchemeExport{}, fmt.Errorf("export_scheme: %w", err)
	}
	return nil, *ex, nil
}

func (s *Server) handleImportSchemes(ctx context.Context, _ *sdkmcp.CallToolRequest, input importSchemesInput) (*sdkmcp.CallToolResult, listSchemesOutput, error) {
	imported, err := s.syncer.ImportSchemes(ctx, []byte(input.Data))
	if err != nil {
		return nil, listSchemesOutput{}, fmt.Errorf("import_schemes: %w", err)
	}
	if imported == nil {
		imported = []cultivation.Scheme{}
	}
	s.logger.Info("schemes imported", "count", len(imported))
	return nil, listSchemesOutput{Schemes: imported}, nil
}

func (s *Server) handleSetCurrent(ctx context.Context, _ *sdkmcp.CallToolRequest, input setCurrentInput) (*sdkmcp.CallToolResult, cultivation.CurrentResponse, error) {
	var overrides cultivation.Overrides
	if input.Overrides != nil {
		overrides = *input.Overrides
	}
	if err := s.engine.SetCurrent(ctx, input.PresetID, overrides); err != nil {
		return nil, cultivation.CurrentResponse{}, fmt.Errorf("set_current: %w", err)
	}
	cur, err := s.engine.Current(ctx)
	if err != nil {
		return nil, cultivation.CurrentResponse{}, fmt.Errorf("set_current: %w", err)
	}
	return nil, *cur, nil
}

func (s *Server) handleGetCurrent(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, cultivation.CurrentResponse, error) {
	cur, err := s.engine.Current(ctx)
	if err != nil {
		return nil, cultivation.CurrentResponse{}, fmt.Errorf("get_current: %w", err)
	}
	return nil, *cur, nil
}

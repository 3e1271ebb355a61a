package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rsned/cultivation-server/internal/cultivation/calculator"
	"github.com/rsned/cultivation-server/internal/cultivation/presets"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// Calculate resolves the request, validates it and walks the ladder.
// Validation failures are reported in the response, not as an error.
func (e *Engine) Calculate(ctx context.Context, req cultivation.CalculateRequest) (*cultivation.CalculateResponse, error) {
	p, r, err := e.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := Evaluate(p, r)
	if len(resp.Errors) > 0 {
		e.logger.Debug("calculation rejected", "errors", len(resp.Errors))
	} else {
		e.logger.Debug("calculation done",
			"steps", len(resp.Result.Steps),
			"alerts", len(resp.Result.Alerts),
			"highest", resp.Result.HighestStageReached,
		)
	}
	return resp, nil
}

// Validate resolves the request and returns the messages of both
// validation gates without running the calculator.
func (e *Engine) Validate(ctx context.Context, req cultivation.CalculateRequest) ([]string, error) {
	p, r, err := e.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	p = ResolveRoot(p)
	return append(calculator.Validate(p), calculator.ValidateResources(r)...), nil
}

// Coefficients reports the derived rates and outputs without walking the ladder.
func (e *Engine) Coefficients(ctx context.Context, req cultivation.CalculateRequest) (*cultivation.CoefficientsResponse, error) {
	p, r, err := e.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	p = ResolveRoot(p)

	resp := &cultivation.CoefficientsResponse{}
	if errs := append(calculator.Validate(p), calculator.ValidateResources(r)...); len(errs) > 0 {
		resp.Errors = errs
		return resp, nil
	}

	resp.ConversionRate = calculator.ConversionRate(p.CultivationParams)
	resp.AbsorptionRate = calculator.AbsorptionRate(p.AbsorptionParams)
	resp.ConversionRateFormatted = calculator.FormatCoefficient(resp.ConversionRate)
	resp.AbsorptionRateFormatted = calculator.FormatCoefficient(resp.AbsorptionRate)
	resp.MineOutput, resp.PlantOutput = calculator.Outputs(r, p.GradeStep())
	return resp, nil
}

// resolve picks the base configuration and layers the request over it:
// scheme (with its saved overrides), else preset, else the current
// selection (with its overrides). Explicit params and resource replace the
// base; request overrides are applied last.
func (e *Engine) resolve(ctx context.Context, req cultivation.CalculateRequest) (cultivation.Params, cultivation.ResourceConfig, error) {
	var (
		p cultivation.Params
		r cultivation.ResourceConfig
	)

	switch {
	case req.SchemeID != "":
		sc, err := e.schemes.GetScheme(ctx, req.SchemeID)
		if err != nil {
			return p, r, err
		}
		if sc == nil {
			return p, r, fmt.Errorf("%w: %s", ErrSchemeNotFound, req.SchemeID)
		}
		p, r = sc.Overrides.Apply(sc.Params, sc.Resource)

	case req.PresetID != "":
		preset, err := e.preset(ctx, req.PresetID)
		if err != nil {
			return p, r, err
		}
		p, r = preset.Params, preset.Resource

	default:
		sel, err := e.currentSelection(ctx)
		if err != nil {
			return p, r, err
		}
		preset, err := e.preset(ctx, sel.PresetID)
		if err != nil {
			return p, r, err
		}
		p, r = sel.Overrides.Apply(preset.Params, preset.Resource)
	}

	p, r = Layer(p, r, req)
	return p, r, nil
}

// Layer applies the explicit params, resource and overrides of req over a
// base configuration.
func Layer(p cultivation.Params, r cultivation.ResourceConfig, req cultivation.CalculateRequest) (cultivation.Params, cultivation.ResourceConfig) {
	if req.Params != nil {
		p = *req.Params
	}
	if req.Resource != nil {
		r = *req.Resource
	}
	if req.Overrides != nil {
		p, r = req.Overrides.Apply(p, r)
	}
	return p, r
}

// preset looks an id up in the database, then in the embedded catalogue.
func (e *Engine) preset(ctx context.Context, id string) (*cultivation.Preset, error) {
	p, err := e.presets.GetPreset(ctx, id)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p, err = presets.Lookup(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	return p, nil
}

// ListPresets returns every stored preset, or the embedded catalogue when
// the database has not been seeded.
func (e *Engine) ListPresets(ctx context.Context) ([]cultivation.Preset, error) {
	stored, err := e.presets.ListPresets(ctx)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}
	return presets.Builtin()
}

// GetPreset returns one preset by id.
func (e *Engine) GetPreset(ctx context.Context, id string) (*cultivation.Preset, error) {
	return e.preset(ctx, id)
}

// ErrBuiltinPreset is returned when a built-in preset would be deleted.
var ErrBuiltinPreset = errors.New("built-in presets cannot be deleted")

// DeletePreset removes an imported preset.
func (e *Engine) DeletePreset(ctx context.Context, id string) error {
	builtin, err := presets.Lookup(id)
	if err != nil {
		return err
	}
	if builtin != nil {
		return fmt.Errorf("%w: %s", ErrBuiltinPreset, id)
	}
	ok, err := e.presets.DeletePreset(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	e.logger.Info("preset deleted", "id", id)
	return nil
}

package engine

import (
	"context"

	"github.com/rsned/cultivation-server/internal/cultivation/db"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// SetCurrent stores the selected preset and its overrides.
func (e *Engine) SetCurrent(ctx context.Context, presetID string, overrides cultivation.Overrides) error {
	if presetID == "" {
		presetID = cultivation.DefaultPresetID
	}
	if _, err := e.preset(ctx, presetID); err != nil {
		return err
	}

	sel := cultivation.CurrentSelection{PresetID: presetID, Overrides: overrides}
	if err := e.settings.SetJSON(ctx, db.SettingCurrentSelection, sel); err != nil {
		return err
	}
	e.logger.Debug("current selection changed", "preset", presetID, "overridden", !overrides.IsZero())
	return nil
}

// Current returns the current selection and the configuration it resolves to.
func (e *Engine) Current(ctx context.Context) (*cultivation.CurrentResponse, error) {
	sel, err := e.currentSelection(ctx)
	if err != nil {
		return nil, err
	}
	preset, err := e.preset(ctx, sel.PresetID)
	if err != nil {
		return nil, err
	}

	p, r := sel.Overrides.Apply(preset.Params, preset.Resource)
	return &cultivation.CurrentResponse{
		PresetID:  sel.PresetID,
		Overrides: sel.Overrides,
		Params:    ResolveRoot(p),
		Resource:  r,
	}, nil
}

func (e *Engine) currentSelection(ctx context.Context) (cultivation.CurrentSelection, error) {
	sel := cultivation.CurrentSelection{PresetID: cultivation.DefaultPresetID}
	if _, err := e.settings.GetJSON(ctx, db.SettingCurrentSelection, &sel); err != nil {
		return sel, err
	}
	if sel.PresetID == "" {
		sel.PresetID = cultivation.DefaultPresetID
	}
	return sel, nil
}

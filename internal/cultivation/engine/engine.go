// Package engine resolves presets, schemes, explicit parameters and
// overrides into final inputs, gates them through validation and runs the
// calculator. It also owns saved schemes and the current selection.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rsned/cultivation-server/internal/cultivation/calculator"
	"github.com/rsned/cultivation-server/internal/cultivation/db"
	"github.com/rsned/cultivation-server/internal/cultivation/presets"
	"github.com/rsned/cultivation-server/internal/logging"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// Lookup errors.
var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrSchemeNotFound = errors.New("scheme not found")
)

// ValidationError carries the messages of a failed validation gate.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Errors, "; ")
}

// Engine is the main entry point for cultivation operations.
type Engine struct {
	presets  *db.PresetStore
	schemes  *db.SchemeStore
	settings *db.SettingsStore
	logger   *slog.Logger

	now            func() time.Time
	newID          func() string
	compareWorkers int
}

// New creates a new Engine with the given database stores.
func New(database *db.DB) *Engine {
	return &Engine{
		presets:        db.NewPresetStore(database),
		schemes:        db.NewSchemeStore(database),
		settings:       db.NewSettingsStore(database),
		logger:         logging.New("engine"),
		now:            time.Now,
		newID:          uuid.NewString,
		compareWorkers: 4,
	}
}

// SeedBuiltinPresets writes the embedded preset catalogue to the database.
func (e *Engine) SeedBuiltinPresets(ctx context.Context) error {
	builtin, err := presets.Builtin()
	if err != nil {
		return err
	}
	if err := e.presets.UpsertPresets(ctx, builtin); err != nil {
		return fmt.Errorf("seeding presets: %w", err)
	}
	e.logger.Debug("seeded built-in presets", "count", len(builtin))
	return nil
}

// Evaluate validates final inputs and runs the calculator when they pass.
// The root coefficient is resolved from the root type when unset.
func Evaluate(p cultivation.Params, r cultivation.ResourceConfig) *cultivation.CalculateResponse {
	p = ResolveRoot(p)
	resp := &cultivation.CalculateResponse{Params: p, Resource: r}

	errs := append(calculator.Validate(p), calculator.ValidateResources(r)...)
	if len(errs) > 0 {
		resp.Errors = errs
		return resp
	}

	resp.Result = calculator.RunLadder(p, r)
	return resp
}

// ResolveRoot fills SpiritualRootCoefficient from SpiritualRoot when it is zero.
func ResolveRoot(p cultivation.Params) cultivation.Params {
	if p.SpiritualRootCoefficient == 0 {
		p.SpiritualRootCoefficient = p.SpiritualRoot.Coefficient()
	}
	return p
}

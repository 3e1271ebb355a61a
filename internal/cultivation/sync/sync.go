// Package sync imports preset catalogues and scheme files into the
// database and exports saved schemes.
package sync

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rsned/cultivation-server/internal/cultivation/calculator"
	"github.com/rsned/cultivation-server/internal/cultivation/db"
	"github.com/rsned/cultivation-server/internal/cultivation/engine"
	"github.com/rsned/cultivation-server/internal/cultivation/presets"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// Sync metadata keys.
const (
	MetaPresetsLastImport = "presets_last_import"
	MetaPresetsCount      = "presets_imported_count"
	MetaSchemesLastImport = "schemes_last_import"
	MetaSchemesCount      = "schemes_imported_count"
)

// Syncer moves preset and scheme files in and out of the database.
type Syncer struct {
	db      *db.DB
	presets *db.PresetStore
	engine  *engine.Engine
	now     func() time.Time
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB, eng *engine.Engine) *Syncer {
	return &Syncer{
		db:      database,
		presets: db.NewPresetStore(database),
		engine:  eng,
		now:     time.Now,
	}
}

// ImportPresetsFromFile imports a YAML preset catalogue, upserting by id.
// Every preset must validate and none may replace a built-in preset.
func (s *Syncer) ImportPresetsFromFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	imported, err := presets.Decode(f)
	if err != nil {
		return 0, err
	}

	for i := range imported {
		p := &imported[i]
		p.Builtin = false
		p.Params = engine.ResolveRoot(p.Params)
		if errs := append(calculator.Validate(p.Params), calculator.ValidateResources(p.Resource)...); len(errs) > 0 {
			return 0, fmt.Errorf("preset %s: %w", p.ID, &engine.ValidationError{Errors: errs})
		}
		existing, err := s.presets.GetPreset(ctx, p.ID)
		if err != nil {
			return 0, err
		}
		if existing != nil && existing.Builtin {
			return 0, fmt.Errorf("preset %s: cannot replace a built-in preset", p.ID)
		}
	}

	if err := s.presets.UpsertPresets(ctx, imported); err != nil {
		return 0, fmt.Errorf("inserting presets: %w", err)
	}

	if err := s.setImportMetadata(ctx, MetaPresetsLastImport, MetaPresetsCount, len(imported)); err != nil {
		return 0, err
	}
	return len(imported), nil
}

// ImportSchemes decodes exported scheme JSON and stores the schemes.
func (s *Syncer) ImportSchemes(ctx context.Context, data []byte) ([]cultivation.Scheme, error) {
	exports, err := DecodeSchemes(data)
	if err != nil {
		return nil, err
	}

	schemes, err := s.engine.ImportSchemes(ctx, exports)
	if err != nil {
		return nil, fmt.Errorf("inserting schemes: %w", err)
	}

	if err := s.setImportMetadata(ctx, MetaSchemesLastImport, MetaSchemesCount, len(schemes)); err != nil {
		return nil, err
	}
	return schemes, nil
}

// ImportSchemesFromFile imports schemes from an exported JSON file.
func (s *Syncer) ImportSchemesFromFile(ctx context.Context, path string) ([]cultivation.Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return s.ImportSchemes(ctx, data)
}

// ExportScheme renders a saved scheme in the portable JSON form.
func (s *Syncer) ExportScheme(ctx context.Context, id string) ([]byte, error) {
	ex, err := s.engine.ExportScheme(ctx, id)
	if err != nil {
		return nil, err
	}
	return EncodeExport(ex)
}

// ExportSchemeToFile writes a saved scheme to path.
func (s *Syncer) ExportSchemeToFile(ctx context.Context, id, path string) error {
	data, err := s.ExportScheme(ctx, id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func (s *Syncer) setImportMetadata(ctx context.Context, timeKey, countKey string, n int) error {
	if err := s.db.SetSyncMetadata(ctx, timeKey, s.now().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.db.SetSyncMetadata(ctx, countKey, strconv.Itoa(n))
}

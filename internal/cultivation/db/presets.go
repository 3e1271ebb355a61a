package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// PresetStore handles preset data access.
type PresetStore struct {
	db *DB
}

// NewPresetStore creates a new PresetStore.
func NewPresetStore(db *DB) *PresetStore {
	return &PresetStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (*cultivation.Preset, error) {
	var (
		p                   cultivation.Preset
		paramsJSON, resJSON string
		builtin             int
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &paramsJSON, &resJSON, &builtin); err != nil {
		return nil, err
	}
	if err := decodeJSON("preset params", paramsJSON, &p.Params); err != nil {
		return nil, err
	}
	if err := decodeJSON("preset resource", resJSON, &p.Resource); err != nil {
		return nil, err
	}
	p.Builtin = builtin != 0
	return &p, nil
}

// GetPreset retrieves a preset by ID. Returns nil if not found.
func (s *PresetStore) GetPreset(ctx context.Context, id string) (*cultivation.Preset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, params_json, resource_json, builtin
		FROM presets
		WHERE id = ?
	`, id)

	p, err := scanPreset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying preset: %w", err)
	}
	return p, nil
}

// ListPresets returns built-in presets in catalogue order, then imported ones by id.
func (s *PresetStore) ListPresets(ctx context.Context) ([]cultivation.Preset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, params_json, resource_json, builtin
		FROM presets
		ORDER BY builtin DESC, sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying presets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var presets []cultivation.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning preset: %w", err)
		}
		presets = append(presets, *p)
	}

	return presets, rows.Err()
}

// CountPresets returns the number of stored presets.
func (s *PresetStore) CountPresets(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM presets`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting presets: %w", err)
	}
	return count, nil
}

// UpsertPresets inserts or replaces presets by id in a transaction.
// A stored built-in preset cannot be replaced by a non built-in one.
func (s *PresetStore) UpsertPresets(ctx context.Context, presets []cultivation.Preset) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO presets
			(id, name, description, params_json, resource_json, builtin, sort_order, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				params_json = excluded.params_json,
				resource_json = excluded.resource_json,
				builtin = excluded.builtin,
				sort_order = excluded.sort_order,
				updated_at = excluded.updated_at
			WHERE presets.builtin = 0 OR excluded.builtin = 1
		`)
		if err != nil {
			return fmt.Errorf("preparing preset statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, p := range presets {
			paramsJSON, err := encodeJSON("preset params", p.Params)
			if err != nil {
				return err
			}
			resJSON, err := encodeJSON("preset resource", p.Resource)
			if err != nil {
				return err
			}
			builtin := 0
			if p.Builtin {
				builtin = 1
			}
			if _, err := stmt.ExecContext(ctx,
				p.ID, p.Name, p.Description, paramsJSON, resJSON, builtin, i,
			); err != nil {
				return fmt.Errorf("inserting preset %s: %w", p.ID, err)
			}
		}

		return nil
	})
}

// DeletePreset removes an imported preset. Built-in presets are kept.
// Returns false if no preset was removed.
func (s *PresetStore) DeletePreset(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ? AND builtin = 0`, id)
	if err != nil {
		return false, fmt.Errorf("deleting preset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting preset: %w", err)
	}
	return n > 0, nil
}

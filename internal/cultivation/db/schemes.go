package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// SchemeStore handles saved scheme access.
type SchemeStore struct {
	db *DB
}

// NewSchemeStore creates a new SchemeStore.
func NewSchemeStore(db *DB) *SchemeStore {
	return &SchemeStore{db: db}
}

const schemeColumns = `id, name, created_at, params_json, resource_json, overrides_json, result_json`

func scanScheme(row rowScanner) (*cultivation.Scheme, error) {
	var (
		sc                                 cultivation.Scheme
		paramsJSON, resJSON, overridesJSON string
		resultJSON                         sql.NullString
	)
	if err := row.Scan(&sc.ID, &sc.Name, &sc.CreatedAt, &paramsJSON, &resJSON, &overridesJSON, &resultJSON); err != nil {
		return nil, err
	}
	if err := decodeJSON("scheme params", paramsJSON, &sc.Params); err != nil {
		return nil, err
	}
	if err := decodeJSON("scheme resource", resJSON, &sc.Resource); err != nil {
		return nil, err
	}
	if err := decodeJSON("scheme overrides", overridesJSON, &sc.Overrides); err != nil {
		return nil, err
	}
	if resultJSON.Valid {
		sc.Result = &cultivation.CalculationResult{}
		if err := decodeJSON("scheme result", resultJSON.String, sc.Result); err != nil {
			return nil, err
		}
	}
	return &sc, nil
}

// GetScheme retrieves a scheme by ID. Returns nil if not found.
func (s *SchemeStore) GetScheme(ctx context.Context, id string) (*cultivation.Scheme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+schemeColumns+` FROM schemes WHERE id = ?`, id)

	sc, err := scanScheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying scheme: %w", err)
	}
	return sc, nil
}

// ListSchemes returns all schemes, newest first. Stored results are omitted.
func (s *SchemeStore) ListSchemes(ctx context.Context) ([]cultivation.Scheme, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, params_json, resource_json, overrides_json, NULL
		FROM schemes
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying schemes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schemes []cultivation.Scheme
	for rows.Next() {
		sc, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scheme: %w", err)
		}
		schemes = append(schemes, *sc)
	}

	return schemes, rows.Err()
}

// InsertSchemes stores schemes in a transaction. IDs must be unique.
func (s *SchemeStore) InsertSchemes(ctx context.Context, schemes []cultivation.Scheme) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO schemes (`+schemeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing scheme statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, sc := range schemes {
			paramsJSON, err := encodeJSON("scheme params", sc.Params)
			if err != nil {
				return err
			}
			resJSON, err := encodeJSON("scheme resource", sc.Resource)
			if err != nil {
				return err
			}
			overridesJSON, err := encodeJSON("scheme overrides", sc.Overrides)
			if err != nil {
				return err
			}
			var resultJSON sql.NullString
			if sc.Result != nil {
				v, err := encodeJSON("scheme result", sc.Result)
				if err != nil {
					return err
				}
				resultJSON = sql.NullString{String: v, Valid: true}
			}

			if _, err := stmt.ExecContext(ctx,
				sc.ID, sc.Name, sc.CreatedAt, paramsJSON, resJSON, overridesJSON, resultJSON,
			); err != nil {
				return fmt.Errorf("inserting scheme %s: %w", sc.ID, err)
			}
		}

		return nil
	})
}

// RenameScheme changes a scheme's name. Returns false if the scheme does not exist.
func (s *SchemeStore) RenameScheme(ctx context.Context, id, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE schemes SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return false, fmt.Errorf("renaming scheme: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("renaming scheme: %w", err)
	}
	return n > 0, nil
}

// DeleteScheme removes a scheme. Returns false if the scheme does not exist.
func (s *SchemeStore) DeleteScheme(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schemes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting scheme: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting scheme: %w", err)
	}
	return n > 0, nil
}

// CountSchemes returns the number of saved schemes.
func (s *SchemeStore) CountSchemes(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schemes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting schemes: %w", err)
	}
	return count, nil
}

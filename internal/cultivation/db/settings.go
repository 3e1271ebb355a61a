package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Setting keys.
const (
	SettingCurrentSelection = "current_selection"
)

// SettingsStore is a small key/value store for UI state such as the
// current preset selection.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the raw value of key, or "" and false if unset.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes the JSON value of key into v. It reports false if unset.
func (s *SettingsStore) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := decodeJSON(key, raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v encoded as JSON under key.
func (s *SettingsStore) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := encodeJSON(key, v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}

package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/RotorSizer/internal/model"
)

// LoadFrameTables reads plate-frame tables from a JSON file. An empty path
// returns the built-in tables.
func LoadFrameTables(path string) (model.FrameTables, error) {
	if path == "" {
		return model.DefaultFrameTables(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FrameTables{}, fmt.Errorf("failed to read frame tables: %w", err)
	}
	var t model.FrameTables
	if err := json.Unmarshal(data, &t); err != nil {
		return model.FrameTables{}, fmt.Errorf("failed to parse frame tables: %w", err)
	}
	if err := t.Validate(); err != nil {
		return model.FrameTables{}, fmt.Errorf("invalid frame tables %s: %w", path, err)
	}
	return t, nil
}

// SaveFrameTables writes frame tables to a JSON file.
func SaveFrameTables(path string, t model.FrameTables) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid frame tables: %w", err)
	}
	return writeJSON(path, t)
}

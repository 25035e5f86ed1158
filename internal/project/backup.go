package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/RotorSizer/internal/model"
)

const backupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Catalog   model.Catalog   `json:"catalog"`
	Studies   []model.Study   `json:"studies"`
}

// ExportAllData exports the config, catalog and saved studies to a single
// JSON file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, cat model.Catalog, studies []model.Study) error {
	if studies == nil {
		studies = []model.Study{}
	}
	backup := BackupData{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Catalog:   cat,
		Studies:   studies,
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if err := backup.Catalog.Normalize(); err != nil {
		return BackupData{}, fmt.Errorf("invalid backup catalog: %w", err)
	}
	// Ensure RecentStudies is never nil
	if backup.Config.RecentStudies == nil {
		backup.Config.RecentStudies = []string{}
	}
	if backup.Studies == nil {
		backup.Studies = []model.Study{}
	}
	return backup, nil
}

package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/RotorSizer/internal/model"
)

// DefaultCatalogPath returns the default file path for the component catalog.
// This is located at ~/.rotorsizer/catalog.json.
func DefaultCatalogPath() string {
	return filepath.Join(DefaultConfigDir(), "catalog.json")
}

// SaveCatalog writes the catalog to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCatalog(path string, cat model.Catalog) error {
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid catalog: %w", err)
	}
	return writeJSON(path, cat)
}

// LoadCatalog reads the catalog from the specified JSON file.
// If the file does not exist, it returns the built-in catalog and saves it.
func LoadCatalog(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cat := model.DefaultCatalog()
			if saveErr := SaveCatalog(path, cat); saveErr != nil {
				return cat, saveErr
			}
			return cat, nil
		}
		return model.Catalog{}, err
	}
	return decodeCatalog(data)
}

func decodeCatalog(data []byte) (model.Catalog, error) {
	var cat model.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return model.Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := cat.Normalize(); err != nil {
		return model.Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}

// LoadOrCreateCatalog loads the catalog from the default path.
// If the file does not exist, it creates one with the built-in components.
func LoadOrCreateCatalog() (model.Catalog, string, error) {
	path := DefaultCatalogPath()
	cat, err := LoadCatalog(path)
	return cat, path, err
}

// ImportCatalog reads a catalog from a user-specified JSON file and merges
// it into existing. Records whose name already exists are skipped. It
// returns the merged catalog and the number of records added.
func ImportCatalog(path string, existing model.Catalog) (model.Catalog, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, 0, err
	}
	imported, err := decodeCatalog(data)
	if err != nil {
		return existing, 0, err
	}
	added := existing.Merge(imported)
	return existing, added, nil
}

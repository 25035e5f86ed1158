package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/RotorSizer/internal/engine"
	"github.com/piwi3910/RotorSizer/internal/model"
)

// Results is the saved outcome of one study run.
type Results struct {
	Version    string                  `json:"version"`
	RunID      string                  `json:"run_id"`
	CreatedAt  string                  `json:"created_at"`
	Study      model.Study             `json:"study"`
	Frame      model.FrameKind         `json:"frame"`
	Summary    engine.Summary          `json:"summary"`
	Envelope   []engine.AttributeRange `json:"envelope"`
	Candidates []model.Candidate       `json:"candidates"` // every evaluated candidate, ranked feasible first
}

// SaveResults writes run results to a JSON file, stamping the version and
// creation time when unset.
func SaveResults(path string, r Results) error {
	if r.Version == "" {
		r.Version = backupVersion
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := writeJSON(path, r); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// LoadResults reads run results from a JSON file.
func LoadResults(path string) (Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Results{}, fmt.Errorf("failed to read results: %w", err)
	}
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return Results{}, fmt.Errorf("failed to parse results: %w", err)
	}
	if r.Version == "" {
		return Results{}, fmt.Errorf("invalid results file: missing version field")
	}
	if r.Candidates == nil {
		r.Candidates = []model.Candidate{}
	}
	return r, nil
}

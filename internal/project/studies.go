package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piwi3910/RotorSizer/internal/model"
)

// StudyExt is the file extension of saved studies.
const StudyExt = ".study.json"

// DefaultStudiesDir returns the default directory for saved studies.
func DefaultStudiesDir() string {
	return filepath.Join(DefaultConfigDir(), "studies")
}

// SaveStudy writes a study to a JSON file, refreshing its update time.
func SaveStudy(path string, s model.Study) error {
	if s.Name == "" {
		return errors.New("study has no name")
	}
	s.Touch()
	return writeJSON(path, s)
}

// LoadStudy reads a study from a JSON file.
func LoadStudy(path string) (model.Study, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Study{}, err
	}
	var s model.Study
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Study{}, fmt.Errorf("failed to parse study %s: %w", path, err)
	}
	if s.Name == "" {
		return model.Study{}, fmt.Errorf("study %s has no name", path)
	}
	if s.Sensors == nil {
		s.Sensors = []string{}
	}
	if s.PrintMaterials == nil {
		s.PrintMaterials = []string{}
	}
	if len(s.Weightings) == 0 {
		s.Weightings = model.DefaultWeightings()
	}
	return s, nil
}

// StudyPath returns the file path for a study named name inside dir.
func StudyPath(dir, name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, name)
	return filepath.Join(dir, slug+StudyExt)
}

// ListStudies returns the paths of every saved study in dir, sorted.
// A missing directory yields an empty list.
func ListStudies(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	paths := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), StudyExt) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

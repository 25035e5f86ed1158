package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to new studies
	DefaultFrame           FrameKind       `json:"default_frame"`
	DefaultHubLayout       HubLayoutMode   `json:"default_hub_layout"`
	DefaultManeuverability Maneuverability `json:"default_maneuverability"`
	DefaultWeightings      []Weighting     `json:"default_weightings"`

	// Application preferences
	Workers       int      `json:"workers"`    // parallel evaluations, 0 = one per CPU
	OutputDir     string   `json:"output_dir"` // reports and drawings
	RecentStudies []string `json:"recent_studies"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching DefaultEvalSettings and DefaultWeightings.
func DefaultAppConfig() AppConfig {
	defaults := DefaultEvalSettings()
	return AppConfig{
		DefaultFrame:           defaults.Frame,
		DefaultHubLayout:       defaults.HubLayout,
		DefaultManeuverability: ManeuverNormal,
		DefaultWeightings:      DefaultWeightings(),
		Workers:                defaults.Workers,
		OutputDir:              "out",
		RecentStudies:          []string{},
	}
}

// ApplyToStudy copies the saved defaults into a new study.
func (c AppConfig) ApplyToStudy(s *Study) {
	if c.DefaultFrame != "" {
		s.Frame = c.DefaultFrame
	}
	if c.DefaultHubLayout != "" {
		s.HubLayout = c.DefaultHubLayout
	}
	if c.DefaultManeuverability != "" {
		s.Maneuverability = c.DefaultManeuverability
	}
	if len(c.DefaultWeightings) > 0 {
		s.Weightings = append([]Weighting(nil), c.DefaultWeightings...)
	}
}

// AddRecent records a study path, most recent first, keeping at most ten.
func (c *AppConfig) AddRecent(path string) {
	out := []string{path}
	for _, p := range c.RecentStudies {
		if p != path && len(out) < 10 {
			out = append(out, p)
		}
	}
	c.RecentStudies = out
}

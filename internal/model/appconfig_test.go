package model

import "testing"

func TestDefaultAppConfigMatchesDefaultEvalSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	defaults := DefaultEvalSettings()

	if cfg.DefaultFrame != defaults.Frame {
		t.Errorf("Frame mismatch: config=%s settings=%s", cfg.DefaultFrame, defaults.Frame)
	}
	if cfg.DefaultHubLayout != defaults.HubLayout {
		t.Errorf("HubLayout mismatch: config=%s settings=%s", cfg.DefaultHubLayout, defaults.HubLayout)
	}
	if cfg.Workers != defaults.Workers {
		t.Errorf("Workers mismatch: config=%d settings=%d", cfg.Workers, defaults.Workers)
	}
	if len(cfg.DefaultWeightings) != len(Attributes()) {
		t.Errorf("expected %d default weightings, got %d", len(Attributes()), len(cfg.DefaultWeightings))
	}
	if cfg.RecentStudies == nil {
		t.Error("RecentStudies should not be nil")
	}
}

func TestApplyToStudy(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DefaultFrame = FrameLayered
	cfg.DefaultManeuverability = ManeuverAcrobatic
	cfg.DefaultWeightings = []Weighting{{Attribute: AttrWeight, Importance: 1, Direction: Minimize}}

	s := NewStudy("hover test")
	cfg.ApplyToStudy(&s)

	if s.Frame != FrameLayered {
		t.Errorf("expected Frame=layered, got %s", s.Frame)
	}
	if s.Maneuverability != ManeuverAcrobatic {
		t.Errorf("expected Maneuverability=Acrobatic, got %s", s.Maneuverability)
	}
	if len(s.Weightings) != 1 || s.Weightings[0].Attribute != AttrWeight {
		t.Errorf("expected weightings to be copied, got %+v", s.Weightings)
	}

	// The study must not alias the config's slice.
	s.Weightings[0].Importance = 99
	if cfg.DefaultWeightings[0].Importance != 1 {
		t.Error("ApplyToStudy should copy weightings")
	}
}

func TestAddRecent(t *testing.T) {
	cfg := DefaultAppConfig()
	for _, p := range []string{"a", "b", "c", "a"} {
		cfg.AddRecent(p)
	}
	want := []string{"a", "c", "b"}
	if len(cfg.RecentStudies) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.RecentStudies)
	}
	for i := range want {
		if cfg.RecentStudies[i] != want[i] {
			t.Errorf("recent[%d]: expected %s, got %s", i, want[i], cfg.RecentStudies[i])
		}
	}

	for i := 0; i < 20; i++ {
		cfg.AddRecent(string(rune('d' + i)))
	}
	if len(cfg.RecentStudies) != 10 {
		t.Errorf("expected recent list capped at 10, got %d", len(cfg.RecentStudies))
	}
}

package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	st := DefaultSettings("/data")
	if st.WorkspacePath != "/data" || !st.RestoreLastProduct || !st.IncludeLinkedContext {
		t.Errorf("defaults = %+v", st)
	}
	if st.DefaultExportMode != ExportFull || st.DefaultIncrementalDays != 7 {
		t.Errorf("export defaults = %+v", st)
	}
	if err := st.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
	if got := st.ExportsDir(); got != filepath.Join("/data", "exports") {
		t.Errorf("ExportsDir = %s", got)
	}
}

func TestSettingsValidate(t *testing.T) {
	base := DefaultSettings("/data")
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"blank workspace", func(s *Settings) { s.WorkspacePath = " " }},
		{"unknown mode", func(s *Settings) { s.DefaultExportMode = "weekly" }},
		{"zero days", func(s *Settings) { s.DefaultIncrementalDays = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := base
			tt.mutate(&st)
			if err := st.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateExportMode(t *testing.T) {
	for _, m := range []ExportMode{ExportFull, ExportIncremental} {
		if err := ValidateExportMode(m); err != nil {
			t.Errorf("%s: %v", m, err)
		}
	}
	if err := ValidateExportMode(""); err == nil {
		t.Error("empty mode should be invalid")
	}
}

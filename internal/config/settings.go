package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ExportMode selects how much of the data set an export covers.
type ExportMode string

const (
	ExportFull        ExportMode = "full"
	ExportIncremental ExportMode = "incremental"
)

// ValidateExportMode returns an error if the mode is not recognized.
func ValidateExportMode(m ExportMode) error {
	switch m {
	case ExportFull, ExportIncremental:
		return nil
	}
	return fmt.Errorf("invalid export mode %q: must be one of: full, incremental", m)
}

// Settings is the workspace configuration object. It is loaded once at
// startup, handed to the components that need it, and saved on explicit
// change. The knowledge store persists it as a single row.
type Settings struct {
	// WorkspacePath is the directory exports are written under by default.
	WorkspacePath string `json:"workspacePath"`
	// LastProductID is the product that was open when the user left.
	LastProductID string `json:"lastProductId,omitempty"`
	// RestoreLastProduct reopens LastProductID on startup.
	RestoreLastProduct     bool       `json:"restoreLastProduct"`
	DefaultExportMode      ExportMode `json:"defaultExportMode"`
	DefaultIncrementalDays int        `json:"defaultIncrementalDays"`
	IncludeLinkedContext   bool       `json:"includeLinkedContext"`
}

// DefaultSettings returns first-run settings rooted at dataDir.
func DefaultSettings(dataDir string) Settings {
	return Settings{
		WorkspacePath:          dataDir,
		RestoreLastProduct:     true,
		DefaultExportMode:      ExportFull,
		DefaultIncrementalDays: 7,
		IncludeLinkedContext:   true,
	}
}

// Validate checks the settings before they are persisted.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.WorkspacePath) == "" {
		return fmt.Errorf("workspacePath is required")
	}
	if err := ValidateExportMode(s.DefaultExportMode); err != nil {
		return err
	}
	if s.DefaultIncrementalDays < 1 {
		return fmt.Errorf("defaultIncrementalDays must be at least 1, got %d", s.DefaultIncrementalDays)
	}
	return nil
}

// ExportsDir returns the default directory for export files.
func (s Settings) ExportsDir() string {
	return filepath.Join(s.WorkspacePath, "exports")
}

package utils

import (
	"os"
	"path/filepath"
)

// OutputManager maps boat/day units onto the output tree
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// UnitDir returns <base>/<boat>/<day> without creating it
func (om *OutputManager) UnitDir(boat, day string) string {
	return filepath.Join(om.BaseOutputDir, filepath.Base(boat), filepath.Base(day))
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}

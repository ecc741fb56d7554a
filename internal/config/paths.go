package config

import (
	"os"
	"path/filepath"
)

// GetUserConfigDir returns ~/.substrate, creating no directories itself.
func GetUserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".substrate"), nil
}

// GetProjectDir walks up from the working directory looking for a
// .substrate or .git directory, falling back to the working directory
// itself. Adapted from the teacher's GetProjectDir (same walk-up-to-.git
// heuristic), renamed for this project's config directory.
func GetProjectDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, ".substrate")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

// EnsureConfigDirs creates the user and project config directories.
func EnsureConfigDirs(userConfigDir, projectDir string) error {
	if err := os.MkdirAll(userConfigDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(projectDir, ".substrate"), 0755)
}

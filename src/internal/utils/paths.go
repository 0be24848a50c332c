package utils

import (
	"os"
	"path/filepath"
)

const (
	appDirName     = "dns-browser"
	configFileName = "dns-browser.toml"
)

// DefaultConfigPath returns the per-user configuration file location,
// falling back to the working directory when no config dir is known.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return configFileName
	}
	return filepath.Join(dir, appDirName, configFileName)
}

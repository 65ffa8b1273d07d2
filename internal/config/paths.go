package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "ec2-cli"

// Environment overrides for the base directories. Mainly used by tests and
// by operators who keep several isolated setups side by side.
const (
	EnvConfigDir = "EC2CLI_CONFIG_DIR"
	EnvStateDir  = "EC2CLI_STATE_DIR"
)

// ConfigDir returns the directory holding config.json and global profiles.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// StateDir returns the directory holding the state document.
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.StateHome, AppName)
}

// SettingsPath returns the path of the settings document.
func SettingsPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// GlobalProfileDir returns the per-user profile directory.
func GlobalProfileDir() string {
	return filepath.Join(ConfigDir(), "profiles")
}

// LocalDirName is the per-project directory holding the instance link and
// project-local profiles.
const LocalDirName = ".ec2-cli"

// Package env locates the directories llman reads and writes outside a
// project.
package env

import (
	"os"
	"path/filepath"
)

// EnvPrefix prefixes every environment variable llman reads.
const EnvPrefix = "LLMAN"

// WorkDir returns the llman work directory, $LLMAN_HOME or
// <UserCacheDir>/.llman.
func WorkDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_HOME"); dir != "" {
		return dir, nil
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".llman"), nil
}

// ConfigDir returns the llman configuration directory,
// $LLMAN_CONFIG_DIR or <UserConfigDir>/llman.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "llman"), nil
}

// RecipeDir returns the default recipe store directory,
// <WorkDir>/recipes. It creates the directory with 0700 permissions if it
// doesn't exist.
func RecipeDir() (string, error) {
	workDir, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(workDir, "recipes")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

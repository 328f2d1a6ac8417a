package config

import (
	"os"
	"path/filepath"
)

// FileName is the name of the configuration file.
const FileName = ".cvutie"

// EnvConfigPath overrides config discovery.
const EnvConfigPath = "CVUTIE_CONFIG"

// Locate returns the config path to use: explicit path, then
// $CVUTIE_CONFIG, then the nearest .cvutie walking up from the working
// directory, else .cvutie in the working directory.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := FindFrom(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, FileName), nil
}

// FindFrom walks up from startDir until it finds a .cvutie file.
func FindFrom(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

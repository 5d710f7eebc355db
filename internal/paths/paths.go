package paths

import (
	"os"
	"path/filepath"
)

const appName = "geopool"

type Paths struct {
	ConfigDir string
	DataDir   string
}

// GetPaths returns all base paths respecting environment variables
func GetPaths() Paths {
	return Paths{
		ConfigDir: getDir("GEOPOOL_CONFIG_HOME", "XDG_CONFIG_HOME", ".config"),
		DataDir:   getDir("GEOPOOL_DATA_HOME", "XDG_DATA_HOME", ".local/share"),
	}
}

func getDir(appEnv, xdgEnv, defaultBase string) string {
	// 1. Check geopool-specific env
	if dir := os.Getenv(appEnv); dir != "" {
		return dir
	}

	// 2. Check XDG env
	if xdgBase := os.Getenv(xdgEnv); xdgBase != "" {
		return filepath.Join(xdgBase, appName)
	}

	// 3. Use default
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultBase, appName)
}

// GetConfigFilePath returns the default location of config.yaml
func GetConfigFilePath() string {
	return filepath.Join(GetPaths().ConfigDir, "config.yaml")
}

// GetExportPath returns the default location of the SQLite run export
func GetExportPath() string {
	if path := os.Getenv("GEOPOOL_EXPORT_PATH"); path != "" {
		return path
	}
	return filepath.Join(GetPaths().DataDir, "geopool.db")
}

// Package paths locates the files backlog reads and writes: config.yaml in
// the config directory and one store file per backend in the data
// directory.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured, so a backlog lives next to the project it tracks.
const DefaultDataDirName = ".backlog"

// File names inside the config and data directories.
const (
	ConfigFileName = "config.yaml"
	TextFileName   = "backlog.txt"
	SQLiteFileName = "backlog.db"
)

// appDirName is the per-application directory under the user config root.
const appDirName = "backlog"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "BACKLOG_CONFIG_DIR"
	EnvDataDir   = "BACKLOG_DATA_DIR"
)

// userConfigDir is replaced in tests.
var userConfigDir = os.UserConfigDir

// DefaultConfigDir returns backlog's directory under the user config root:
// $XDG_CONFIG_HOME (or ~/.config) on Linux, ~/Library/Application Support
// on macOS, %AppData% on Windows.
func DefaultConfigDir() (string, error) {
	root, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(root, appDirName), nil
}

// ResolveConfigDir picks the config directory: flag, then BACKLOG_CONFIG_DIR,
// then DefaultConfigDir. Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory: flag, then the data_dir value
// from config.yaml, then BACKLOG_DATA_DIR, then ./.backlog.
func ResolveDataDir(flag, configValue string) (string, error) {
	dir := firstSet(flag, configValue, os.Getenv(EnvDataDir))
	if dir == "" {
		dir = DefaultDataDirName
	}
	return filepath.Abs(dir)
}

// ConfigFile returns the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// StoreFile returns the file the named backend keeps its catalog in.
func StoreFile(dataDir, backend string) (string, error) {
	if dataDir == "" {
		return "", types.ErrDataDirEmpty
	}
	switch backend {
	case types.BackendText:
		return filepath.Join(dataDir, TextFileName), nil
	case types.BackendSQLite:
		return filepath.Join(dataDir, SQLiteFileName), nil
	case "":
		return "", types.ErrBackendEmpty
	default:
		return "", fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

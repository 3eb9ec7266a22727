package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/backlog/internal/app"
	"github.com/mesh-intelligence/backlog/internal/paths"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend   string `yaml:"backend"`
	DataDir   string `yaml:"data_dir,omitempty"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize backlog storage",
		Long:  "Create the configuration and data directories, write config.yaml if it is missing, and open the storage backend once.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := storeConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(settings.configDir, 0o755); err != nil {
		return systemError(fmt.Errorf("create config directory: %w", err))
	}
	configPath := paths.ConfigFile(settings.configDir)
	if err := writeConfigIfMissing(configPath, configFile{
		Backend:   cfg.Backend,
		DataDir:   flags.dataDir,
		LogLevel:  settings.config.GetString(cfgKeyLogLevel),
		LogFormat: settings.config.GetString(cfgKeyLogFormat),
	}); err != nil {
		return systemError(fmt.Errorf("write config: %w", err))
	}

	session, err := app.Open(app.Options{Config: cfg, Logger: settings.logger})
	if err != nil {
		return systemError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := session.Close(); err != nil {
		return systemError(fmt.Errorf("finalize storage: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backlog initialized in %s (%s backend)\n", cfg.DataDir, cfg.Backend)
	return nil
}

// writeConfigIfMissing creates config.yaml if the file does not exist. If it
// already exists, the function returns nil.
func writeConfigIfMissing(path string, cfg configFile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if cfg.DataDir != "" {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return err
		}
		cfg.DataDir = abs
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

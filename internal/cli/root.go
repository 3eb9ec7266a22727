// Package cli implements the backlog command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/backlog/internal/logging"
	"github.com/mesh-intelligence/backlog/internal/paths"
	"github.com/mesh-intelligence/backlog/internal/textfile"
	"github.com/mesh-intelligence/backlog/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	product   string
	logLevel  string
	jsonMode  bool
}

var flags rootFlags

// settings is filled in by the root PersistentPreRunE from flags and
// config.yaml.
var settings struct {
	configDir string
	config    *viper.Viper
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "backlog" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "backlog",
		Short: "Track products and the tasks moving through their workflow",
		Long: "backlog keeps products and their tasks in a local store. Tasks move\n" +
			"Backlog -> Owned -> Processing -> Verifying -> Done, or to Rejected.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .backlog)")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend: text or sqlite (default from config)")
	root.PersistentFlags().StringVarP(&flags.product, "product", "p", "", "select this product before running the command")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newProductCmd())
	root.AddCommand(newTaskCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newExportCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// setup resolves the config directory, reads config.yaml and builds the
// logger.
func setup(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return systemError(fmt.Errorf("resolve config dir: %w", err))
	}
	// init writes its own config.yaml from the resolved flags.
	cfg, err := loadConfig(configDir, cmd.Name() != "init")
	if err != nil {
		return systemError(err)
	}

	level := cfg.GetString(cfgKeyLogLevel)
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.GetString(cfgKeyLogFormat),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	settings.configDir = configDir
	settings.config = cfg
	settings.logger = logger
	return nil
}

// storeConfig returns the backend and data directory to use, following
// --backend > config.yaml and --data-dir > config.yaml > env > default.
func storeConfig() (types.Config, error) {
	backend := settings.config.GetString(cfgKeyBackend)
	if flags.backend != "" {
		backend = flags.backend
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, settings.config.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, systemError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := types.Config{Backend: backend, DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// errSystem tags failures of the store or the filesystem. Every other
// error, including cobra's own flag and argument errors, is a user error.
var errSystem = errors.New("system error")

// systemError tags err so that exitCode reports exitSysError.
func systemError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errSystem, err)
}

// storeError tags err as a system error unless the store refused the
// data itself.
func storeError(err error) error {
	if err == nil || errors.Is(err, textfile.ErrUnencodable) || errors.Is(err, types.ErrNothingToSave) {
		return err
	}
	return systemError(err)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errSystem):
		return exitSysError
	default:
		return exitUserError
	}
}

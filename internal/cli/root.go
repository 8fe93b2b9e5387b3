package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/pmdreview/internal/config"
	"github.com/dshills/pmdreview/internal/logging"
)

const version = "0.1.0"

const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// Global flags
var (
	flagConfig string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:          "pmdreview",
	Short:        "Review code changes with PMD",
	Long:         "pmdreview runs PMD on changed files, merges repeated violations on consecutive lines, and emits review comments with deterministic exit codes.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	exitCode = ExitSuccess
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pmdreview version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pmdreview version %s\n", version)
	},
}

// loadConfig reads the effective config for a command.
func loadConfig(overrides map[string]string) (config.Config, error) {
	return config.Load(flagConfig, overrides)
}

// newLogger builds the logger for a command. A broken log setting falls back
// to the defaults rather than failing the run.
func newLogger(cfg config.Config) *zap.SugaredLogger {
	log, err := logging.New(flagDebug, cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using default logging\n", err)
		log, err = logging.New(flagDebug, "", "")
		if err != nil {
			return logging.Nop()
		}
	}
	return log
}

// fail prints err and records code as the exit code.
func fail(code int, err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	exitCode = code
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: platform config dir)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(githubCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)
}

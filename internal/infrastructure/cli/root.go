package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/wiring"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Global flags.
var (
	projectPath string
	configPath  string
	logLevel    string
	logFormat   string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "specaudit",
	Version: Version,
	Short:   "Normalize and audit category specification files",
	Long: `Specaudit turns category specification files into a single audit input,
hands it to an auditor and shows which specifications and options are wrong.

Supported files: finalized category exports, legacy MCAT exports, bare
specification lists and {"specifications": [...]} wrappers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := wiring.NewLogger(cmd.ErrOrStderr(), logLevel, logFormat)
		if err != nil {
			return MapError(err)
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return err
}

// ExitCode returns the process exit code for an Execute error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	return 1
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&projectPath, "project", "C", "", "Working directory (defaults to the current directory)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (defaults to .specaudit.yaml in the working directory)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

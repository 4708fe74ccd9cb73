// Package cli implements the flexiflow command line interface.
//
// The CLI is a thin driver: it loads a config, constructs an engine and a
// component, and feeds messages in. The interesting behavior lives in the
// library packages.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ConfigEnvVar names the environment variable consulted when --config is
// not given.
const ConfigEnvVar = "FLEXIFLOW_CONFIG"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the flexiflow CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "flexiflow",
		Short: "FlexiFlow - async component runtime",
		Long:  "A lightweight component runtime with state machines and a priority event bus.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config YAML (or set "+ConfigEnvVar+")")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewHandleCommand(opts))
	cmd.AddCommand(NewUpdateRulesCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewVisualizeCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSnapshotsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// resolveConfigPath picks the config path from --config or the environment.
func (o *RootOptions) resolveConfigPath() (string, error) {
	if o.Config != "" {
		return o.Config, nil
	}
	if path := os.Getenv(ConfigEnvVar); path != "" {
		return path, nil
	}
	return "", NewExitError(ExitCommandError,
		"no config provided: use --config or set "+ConfigEnvVar)
}

// newLogger builds the CLI logger: text handler on stderr, debug level when
// verbose, with a correlation id attached to every record.
func (o *RootOptions) newLogger() *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("cid", uuid.NewString())
}

// newFormatter builds the output formatter for a command.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
}

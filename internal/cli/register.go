package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flexiflow/state"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var start bool

	cmd := &cobra.Command{
		Use:           "register",
		Short:         "Register a component from config",
		Long:          "Load the config, construct the engine and component, and register it.\nWith --start, a 'start' message is sent after registration.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(rootOpts, cmd, start)
		},
	}

	cmd.Flags().BoolVar(&start, "start", false, "send a 'start' message after registration")
	return cmd
}

func runRegister(opts *RootOptions, cmd *cobra.Command, start bool) error {
	formatter := opts.newFormatter(cmd)

	env, err := buildRuntime(opts)
	if err != nil {
		formatter.Failure(err)
		return WrapExitError(ExitCommandError, "register failed", err)
	}

	if start {
		if _, err := env.component.HandleMessage(cmd.Context(), state.Message{"type": "start"}); err != nil {
			formatter.Failure(err)
			return WrapExitError(ExitFailure, "start message failed", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"component": env.component.Name(),
			"state":     env.component.Machine().Current().Name(),
		})
	}
	return formatter.Success(fmt.Sprintf("registered %s (state: %s)",
		env.component.Name(), env.component.Machine().Current().Name()))
}

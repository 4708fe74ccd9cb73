package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flexiflow/state"
)

// NewHandleCommand creates the handle command.
func NewHandleCommand(rootOpts *RootOptions) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:           "handle <message-type>",
		Short:         "Send a message to the configured component",
		Long:          "Build the component from config and route one message into its state machine.\nExtra payload fields may be given as a JSON object with --payload.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandle(rootOpts, cmd, args[0], payload)
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "", "extra message fields as a JSON object")
	return cmd
}

func runHandle(opts *RootOptions, cmd *cobra.Command, msgType, payload string) error {
	formatter := opts.newFormatter(cmd)

	msg := state.Message{"type": msgType}
	if payload != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(payload), &extra); err != nil {
			perr := fmt.Errorf("invalid --payload JSON: %w", err)
			formatter.Failure(perr)
			return WrapExitError(ExitCommandError, "invalid payload", err)
		}
		for k, v := range extra {
			if k == "type" {
				continue
			}
			msg[k] = v
		}
	}

	env, err := buildRuntime(opts)
	if err != nil {
		formatter.Failure(err)
		return WrapExitError(ExitCommandError, "handle failed", err)
	}

	accepted, err := env.component.HandleMessage(cmd.Context(), msg)
	if err != nil {
		formatter.Failure(err)
		return WrapExitError(ExitFailure, "message handling failed", err)
	}

	current := env.component.Machine().Current().Name()
	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"component": env.component.Name(),
			"message":   msgType,
			"accepted":  accepted,
			"state":     current,
		})
	}
	if accepted {
		return formatter.Success(fmt.Sprintf("accepted %q (state: %s)", msgType, current))
	}
	return formatter.Success(fmt.Sprintf("rejected %q (state: %s)", msgType, current))
}

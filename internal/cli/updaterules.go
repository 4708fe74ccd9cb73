package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flexiflow/config"
)

// NewUpdateRulesCommand creates the update-rules command.
func NewUpdateRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "update-rules <rules-file>",
		Short:         "Append rules from a YAML file to the component",
		Long:          "Build the component from config, then append every rule from the given\nYAML file to its rule list. Existing rules are never removed.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateRules(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runUpdateRules(opts *RootOptions, cmd *cobra.Command, rulesPath string) error {
	formatter := opts.newFormatter(cmd)

	rules, err := config.LoadRules(rulesPath)
	if err != nil {
		formatter.Failure(err)
		return WrapExitError(ExitCommandError, "load rules failed", err)
	}

	env, err := buildRuntime(opts)
	if err != nil {
		formatter.Failure(err)
		return WrapExitError(ExitCommandError, "update-rules failed", err)
	}

	env.component.UpdateRules(rules)

	total := len(env.component.Rules())
	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"component":   env.component.Name(),
			"added":       len(rules),
			"total_rules": total,
		})
	}
	return formatter.Success(fmt.Sprintf("added %d rule(s) to %s (%d total)",
		len(rules), env.component.Name(), total))
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/flexiflow/explain"
	"github.com/roach88/flexiflow/resolve"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "explain",
		Short:         "Explain how a config resolves without building the component",
		Long:          "Report every state resolution, pack, and policy decision a config\nproduces. Problems surface as warnings and errors in the report, never\nas a crash. Exits non-zero when the report contains errors.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, cmd)
		},
	}
	return cmd
}

func runExplain(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	path, err := opts.resolveConfigPath()
	if err != nil {
		formatter.Failure(err)
		return err
	}

	exp := explain.Explain(path, explain.Options{
		Resolver: resolve.NewSymbolTable(),
	})

	if opts.Format == "json" {
		if err := formatter.Success(exp); err != nil {
			return err
		}
	} else {
		if err := formatter.Success(exp.Format()); err != nil {
			return err
		}
	}

	if !exp.IsValid() {
		return NewExitError(ExitFailure, "config has errors")
	}
	return nil
}

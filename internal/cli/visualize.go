package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/flexiflow/explain"
	"github.com/roach88/flexiflow/resolve"
	"github.com/roach88/flexiflow/visualize"
)

// NewVisualizeCommand creates the visualize command.
func NewVisualizeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		diagramFormat string
		outPath       string
	)

	cmd := &cobra.Command{
		Use:           "visualize",
		Short:         "Render the config's transition graph as a diagram",
		Long:          "Explain the config and render its packs, states, and transitions as a\nMermaid flowchart. The diagram is best-effort: unknown states render in a\ndashed group instead of failing the command.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisualize(rootOpts, cmd, diagramFormat, outPath)
		},
	}

	cmd.Flags().StringVar(&diagramFormat, "diagram-format", visualize.FormatMermaid, "diagram format (mermaid)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the diagram to a file instead of stdout")
	return cmd
}

func runVisualize(opts *RootOptions, cmd *cobra.Command, diagramFormat, outPath string) error {
	formatter := opts.newFormatter(cmd)

	path, err := opts.resolveConfigPath()
	if err != nil {
		formatter.Failure(err)
		return err
	}

	exp := explain.Explain(path, explain.Options{
		Resolver: resolve.NewSymbolTable(),
	})

	diagram, err := visualize.Visualize(exp, diagramFormat)
	if err != nil {
		formatter.Failure(err)
		return WrapExitError(ExitCommandError, "visualize failed", err)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(diagram+"\n"), 0o644); err != nil {
			formatter.Failure(err)
			return WrapExitError(ExitCommandError, "write diagram failed", err)
		}
		return formatter.Success("wrote " + outPath)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"format": diagramFormat, "diagram": diagram})
	}
	return formatter.Success(diagram)
}

package graph

import (
	"fmt"

	"github.com/LegacyCodeHQ/workgraph/cmd/cmdutil"
	"github.com/LegacyCodeHQ/workgraph/cmd/graph/formatters"
	"github.com/spf13/cobra"
)

type graphOptions struct {
	workspace   string
	format      string
	label       string
	focus       []string
	noDaemon    bool
	generateURL bool
}

// NewCommand returns a new graph command instance.
func NewCommand() *cobra.Command {
	opts := &graphOptions{
		format: formatters.OutputFormatJSON.String(),
	}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the project dependency graph of a workspace.",
		Long: `Print the project dependency graph of a workspace.

The graph is served by the workspace daemon when one is running and computed
in-process otherwise.

Examples:
  workgraph graph                          # JSON graph of the current directory
  workgraph graph -w ../shop -f dot        # Graphviz DOT of another workspace
  workgraph graph -f mermaid --focus api   # api with its dependencies and dependents
  workgraph graph -f dot -u                # generate visualization URL
  workgraph graph --no-daemon              # always compute in-process`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.workspace, "workspace", "w", "", "Workspace root (default: current directory)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, fmt.Sprintf("Output format (%s)", formatters.SupportedFormats()))
	cmd.Flags().StringVarP(&opts.label, "label", "l", "", "Graph title for dot and mermaid output")
	cmd.Flags().StringSliceVar(&opts.focus, "focus", nil, "Show only these projects with their dependencies and dependents (comma-separated)")
	cmd.Flags().BoolVar(&opts.noDaemon, "no-daemon", false, "Compute the graph in-process without asking the daemon")
	cmd.Flags().BoolVarP(&opts.generateURL, "url", "u", false, "Generate an online visualization URL")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *graphOptions) error {
	formatter, err := NewFormatter(opts.format)
	if err != nil {
		return err
	}

	env, err := cmdutil.Load(opts.workspace)
	if err != nil {
		return err
	}
	if opts.noDaemon {
		env.Config.UseDaemon = false
	}

	g, err := env.ProjectGraph(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build project graph: %w", err)
	}

	if len(opts.focus) > 0 {
		g, err = Focus(g, opts.focus)
		if err != nil {
			return err
		}
	}

	output, err := formatter.Format(g, formatters.RenderOptions{Label: opts.label})
	if err != nil {
		return fmt.Errorf("failed to format graph: %w", err)
	}

	if opts.generateURL {
		url, ok := formatter.GenerateURL(output)
		if !ok {
			return fmt.Errorf("--url is not supported for %s output", opts.format)
		}
		output = url
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}

package cmd

import (
	"os"

	"github.com/LegacyCodeHQ/workgraph/cmd/affected"
	daemoncmd "github.com/LegacyCodeHQ/workgraph/cmd/daemon"
	"github.com/LegacyCodeHQ/workgraph/cmd/graph"
	"github.com/LegacyCodeHQ/workgraph/cmd/plugins"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// NewRootCommand returns the workgraph command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "workgraph",
		Short: "Compute the project dependency graph of a monorepo workspace",
		Long: `Workgraph reads a workspace's project configuration, scans TypeScript,
JavaScript and Go sources for imports and prints the dependency graph between
projects.

A long-running daemon can keep the graph warm for repeated invocations.

Use 'workgraph --help' to see all available commands, or 'workgraph <command> --help'
for detailed information about a specific command.`,
		Version:      version,
		SilenceUsage: true,
		Annotations: map[string]string{
			"buildDate": buildDate,
			"commit":    commit,
		},
	}

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	rootCmd.AddCommand(
		graph.NewCommand(),
		affected.NewCommand(),
		daemoncmd.NewCommand(),
		plugins.NewCommand(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

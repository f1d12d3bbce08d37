package plugins

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/workgraph/projectgraph/registry"
	"github.com/spf13/cobra"
)

// NewCommand returns a new plugins command instance.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the graph plugins and the file extensions they read",
		Long: `List the registered graph plugins, the file extensions they scan and how
mature their dependency analysis is.

Examples:
  workgraph plugins`,
		RunE: runPlugins,
	}

	return cmd
}

func runPlugins(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	for _, entry := range registry.Entries() {
		if _, err := fmt.Fprintf(out, "%s %s [%s] (%s)\n",
			entry.Maturity.Symbol(), entry.DisplayName, entry.Name, strings.Join(entry.Extensions, ", ")); err != nil {
			return err
		}
	}

	var legend []string
	for _, level := range registry.MaturityLevels() {
		legend = append(legend, fmt.Sprintf("%s %s", level.Symbol(), level.DisplayName()))
	}
	_, err := fmt.Fprintf(out, "\n%s\n", strings.Join(legend, "  "))
	return err
}

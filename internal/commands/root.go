package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moneta-dev/moneta/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "moneta",
		Short:   "Bank export ingestion, deduplication, and categorization",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "moneta.yaml", "path to the workspace config")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand(&configPath))
	rootCmd.AddCommand(newStatusCommand(&configPath))
	rootCmd.AddCommand(newPreviewCommand(&configPath))
	rootCmd.AddCommand(newReprocessCommand(&configPath))
	rootCmd.AddCommand(newCategorizeCommand(&configPath))
	rootCmd.AddCommand(newRulesCommand(&configPath))

	return rootCmd
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moneta-dev/moneta/internal/categorize"
	"github.com/moneta-dev/moneta/internal/config"
	"github.com/moneta-dev/moneta/internal/store"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new moneta workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(absDir)
		},
	}
}

func runInit(dir string) error {
	cfg := config.Default()

	dirs := []string{
		cfg.DataDir,
		cfg.ImportDir,
		filepath.Join(cfg.ImportDir, "processed"),
		"logs",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, "moneta.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Seed the database with default categories, the starter rule set, and
	// the configured accounts.
	st, err := store.Open(filepath.Join(dir, cfg.DataDir, "moneta.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	for _, c := range categorize.SeedCategories() {
		if err := st.PutCategory(c); err != nil {
			return fmt.Errorf("seeding category %s: %w", c.ID, err)
		}
	}
	for _, r := range categorize.SeedRules() {
		if err := st.PutRule(r); err != nil {
			return fmt.Errorf("seeding rule %s: %w", r.ID, err)
		}
	}
	if err := syncAccounts(st, cfg); err != nil {
		return err
	}

	color.Green("Initialized moneta workspace at %s", dir)
	fmt.Println("Edit moneta.yaml to map your bank export sources to accounts,")
	fmt.Printf("then drop CSV exports into %s/ and run 'moneta import'.\n", cfg.ImportDir)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moneta-dev/moneta/internal/importer"
	"github.com/moneta-dev/moneta/internal/model"
)

func newImportCommand(configPath *string) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank export, or scan the import directory",
		Long: "With a file argument, imports that export (--source required).\n" +
			"Without arguments, scans the import directory and imports every CSV found,\n" +
			"inferring the source from the filename prefix (e.g. boursorama-jan.csv).\n" +
			"Successfully imported files move to the processed/ subdirectory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				if source == "" {
					return fmt.Errorf("--source is required when importing a single file")
				}
				_, err := importFile(a, args[0], source)
				return err
			}
			return runScan(a, source)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "institution key of the export (boursorama, creditagricole, revolut)")

	return cmd
}

func importFile(a *app, path, source string) (model.ImportBatch, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.ImportBatch{}, fmt.Errorf("reading %s: %w", path, err)
	}
	ctx := context.Background()
	b, err := a.orch.Accept(ctx, source, filepath.Base(path), "text/csv", content)
	if err != nil {
		return model.ImportBatch{}, err
	}
	b, err = a.orch.Run(ctx, b.ID)
	if err != nil {
		return b, err
	}
	printBatch(b)
	return b, nil
}

// runScan imports every CSV waiting in the import directory. A failed file
// stays in place so a rescan retries it after the problem is fixed.
func runScan(a *app, sourceOverride string) error {
	dir := a.importDir()
	files, err := importer.Scan(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No export files in %s\n", dir)
		return nil
	}

	for _, f := range files {
		source := sourceOverride
		if source == "" {
			source = sourceFromFileName(f.Name)
		}
		fmt.Printf("%s: ", f.Name)
		b, err := importFile(a, f.Path, source)
		if err != nil {
			return err
		}
		if b.Status == model.ImportProcessed {
			if err := importer.MarkProcessed(dir, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// sourceFromFileName extracts the institution key from a filename like
// "boursorama-2025-01.csv" or "revolut_january.csv".
func sourceFromFileName(name string) string {
	base := strings.TrimSuffix(strings.ToLower(name), filepath.Ext(name))
	if i := strings.IndexAny(base, "-_"); i > 0 {
		base = base[:i]
	}
	return base
}

func printBatch(b model.ImportBatch) {
	switch b.Status {
	case model.ImportProcessed:
		color.Green("%s", b.Summary)
	case model.ImportFailed:
		color.Red("import failed: %s", b.ErrorMessage)
	default:
		fmt.Printf("import %s is %s\n", b.ID, b.Status)
	}
	for _, w := range b.Warnings {
		color.Yellow("  warning: %s", w)
	}
}

package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newPreviewCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <import-id>",
		Short: "Show what a reprocess of an import would change, without changing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := a.orch.PreviewReprocess(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Reprocessing would delete %d existing transactions between %s and %s\n",
				plan.AffectedCount, plan.MinDate.Format("2006-01-02"), plan.MaxDate.Format("2006-01-02"))
			fmt.Printf("and import %d transactions from the stored file.\n", plan.NewCount)
			return nil
		},
	}
}

func newReprocessCommand(configPath *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reprocess <import-id>",
		Short: "Delete an import's date range and re-import its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reprocess deletes existing transactions; run 'moneta preview %s' first, then confirm with --yes", args[0])
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.orch.Reprocess(context.Background(), args[0])
			if err != nil {
				return err
			}
			color.Cyan("Reprocessed import %s", b.ID)
			printBatch(b)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive reprocess")

	return cmd
}

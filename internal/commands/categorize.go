package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moneta-dev/moneta/internal/categorize"
	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/store"
)

const categorizeWorkers = 4

func newCategorizeCommand(configPath *string) *cobra.Command {
	var suggest bool

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Run the category rules over all uncategorized transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runCategorize(a, suggest)
		},
	}

	cmd.Flags().BoolVar(&suggest, "suggest", false, "print classifier suggestions for transactions no rule matched")

	cmd.AddCommand(newCategorizeSetCommand(configPath))

	return cmd
}

// newCategorizeSetCommand is the manual override: it assigns the category
// with full confidence and learns an exact rule so the same description is
// categorized that way in future imports.
func newCategorizeSetCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <transaction-id> <category-id>",
		Short: "Manually categorize a transaction and learn a rule from it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.Recategorize(args[0], args[1]); err != nil {
				return err
			}
			color.Green("Categorized %s as %s", args[0], args[1])
			return nil
		},
	}
}

func runCategorize(a *app, suggest bool) error {
	accounts, err := a.store.Accounts()
	if err != nil {
		return err
	}

	var (
		assigned  int
		samples   []categorize.TrainingSample
		unmatched []model.LedgerTransaction
	)
	for _, acc := range accounts {
		pending, assignedSamples, err := splitByAssignment(a, acc.ID)
		if err != nil {
			return err
		}
		samples = append(samples, assignedSamples...)

		n, err := a.engine.ApplyBatch(pending, acc.SourceKey, categorizeWorkers)
		if err != nil {
			return err
		}
		assigned += n

		for _, t := range pending {
			if _, err := a.store.GetAssignment(t.ID); errors.Is(err, store.ErrNotFound) {
				unmatched = append(unmatched, t)
			}
		}
	}

	accountIDs := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		accountIDs = append(accountIDs, acc.ID)
	}
	paired, err := a.engine.PairInternalTransfers(accountIDs)
	if err != nil {
		return err
	}

	color.Green("Assigned %d transactions, paired %d internal transfers, %d unmatched", assigned, paired, len(unmatched))

	if suggest && len(unmatched) > 0 {
		printSuggestions(samples, unmatched)
	}
	return nil
}

// splitByAssignment partitions an account's transactions into those still
// lacking an assignment and training samples built from those that have one.
func splitByAssignment(a *app, accountID string) ([]model.LedgerTransaction, []categorize.TrainingSample, error) {
	txns, err := a.store.TransactionsByAccount(accountID)
	if err != nil {
		return nil, nil, err
	}
	var pending []model.LedgerTransaction
	var samples []categorize.TrainingSample
	for _, t := range txns {
		assignment, err := a.store.GetAssignment(t.ID)
		switch {
		case err == nil:
			samples = append(samples, categorize.TrainingSample{
				Description: t.Description,
				CategoryID:  assignment.CategoryID,
			})
		case errors.Is(err, store.ErrNotFound):
			pending = append(pending, t)
		default:
			return nil, nil, err
		}
	}
	return pending, samples, nil
}

// printSuggestions trains the classifier on confirmed assignments and prints
// an advisory category for each unmatched transaction. Suggestions are never
// written; accepting one means running 'categorize set'.
func printSuggestions(samples []categorize.TrainingSample, unmatched []model.LedgerTransaction) {
	suggester := categorize.NewSuggester(samples)
	if suggester == nil {
		fmt.Println("Not enough categorized history to train suggestions.")
		return
	}
	fmt.Println("\nSuggestions (confirm with 'moneta categorize set'):")
	for _, t := range unmatched {
		if categoryID, ok := suggester.Suggest(t.Description); ok {
			fmt.Printf("  %s  %-40s -> %s\n", t.ID, t.Description, categoryID)
		}
	}
}

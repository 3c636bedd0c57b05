package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moneta-dev/moneta/internal/model"
)

const statusImportLimit = 10

func newStatusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show account balances and recent imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return runStatus(a)
		},
	}
}

func runStatus(a *app) error {
	accounts, err := a.store.Accounts()
	if err != nil {
		return err
	}
	bold := color.New(color.Bold)
	bold.Println("Accounts")
	if len(accounts) == 0 {
		fmt.Println("  none configured")
	}
	for _, acc := range accounts {
		txns, err := a.store.TransactionsByAccount(acc.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  %-20s %-12s %10s  (%d transactions)\n",
			acc.Name, acc.SourceKey, acc.Balance.StringFixed(2), len(txns))
	}

	imports, err := a.store.Imports()
	if err != nil {
		return err
	}
	bold.Println("\nRecent imports")
	if len(imports) == 0 {
		fmt.Println("  none")
	}
	if len(imports) > statusImportLimit {
		imports = imports[:statusImportLimit]
	}
	for _, b := range imports {
		line := fmt.Sprintf("  %s  %-10s %-14s %s", b.ID, b.SourceKey, b.Status, b.FileName)
		switch b.Status {
		case model.ImportProcessed:
			fmt.Printf("%s  %s\n", line, b.Summary)
		case model.ImportFailed:
			color.Red("%s  %s", line, b.ErrorMessage)
		default:
			fmt.Println(line)
		}
	}
	return nil
}

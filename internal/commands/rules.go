package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moneta-dev/moneta/internal/model"
)

func newRulesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
	}
	cmd.AddCommand(newRulesListCommand(configPath))
	cmd.AddCommand(newRulesAddCommand(configPath))
	cmd.AddCommand(newRulesDeleteCommand(configPath))
	return cmd
}

func newRulesListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categorization rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.store.Rules()
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Println("No rules defined.")
				return nil
			}
			for _, r := range rules {
				line := fmt.Sprintf("%s  prio %3d  %-8s %-30q -> %s", r.ID, r.Priority, r.MatchType, r.Pattern, r.CategoryID)
				if r.SourceFilter != "" {
					line += "  (source: " + r.SourceFilter + ")"
				}
				if !r.IsActive {
					color.New(color.Faint).Printf("%s  [inactive]\n", line)
					continue
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newRulesAddCommand(configPath *string) *cobra.Command {
	var (
		pattern      string
		matchType    string
		categoryID   string
		priority     int
		sourceFilter string
		confidence   float64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a categorization rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch model.MatchType(matchType) {
			case model.MatchExact, model.MatchContains, model.MatchRegex:
			default:
				return fmt.Errorf("invalid match type %q", matchType)
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.engine.AddRule(model.CategoryRule{
				Pattern:      pattern,
				MatchType:    model.MatchType(matchType),
				CategoryID:   categoryID,
				Priority:     priority,
				SourceFilter: sourceFilter,
				Confidence:   confidence,
				IsActive:     true,
			})
			if err != nil {
				return err
			}
			color.Green("Added rule %s", r.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "pattern to match against the normalized description (required)")
	cmd.Flags().StringVar(&matchType, "match", "contains", "match type: exact, contains, or regex")
	cmd.Flags().StringVar(&categoryID, "category", "", "category id to assign (required)")
	cmd.Flags().IntVar(&priority, "priority", model.PrioritySeed, "rule priority, higher wins")
	cmd.Flags().StringVar(&sourceFilter, "source", "", "restrict the rule to one institution key")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.8, "confidence recorded on assignments this rule makes")
	_ = cmd.MarkFlagRequired("pattern")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newRulesDeleteCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a categorization rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteRule(args[0]); err != nil {
				return err
			}
			a.engine.ClearRuleCache()
			color.Green("Deleted rule %s", args[0])
			return nil
		},
	}
}

package categorize

import (
	"time"

	"github.com/moneta-dev/moneta/internal/model"
)

// SeedCategories returns the categories shipped with a fresh workspace.
func SeedCategories() []model.Category {
	return []model.Category{
		{ID: "groceries", Name: "Groceries"},
		{ID: "restaurants", Name: "Restaurants"},
		{ID: "transport", Name: "Transport"},
		{ID: "utilities", Name: "Utilities"},
		{ID: "subscriptions", Name: "Subscriptions"},
		{ID: "housing", Name: "Housing"},
		{ID: "health", Name: "Health"},
		{ID: "income", Name: "Income"},
		{ID: model.CategoryInternalTransfer, Name: "Internal transfer"},
	}
}

// SeedRules returns the default rule set at the seed priority. Learned rules
// at the higher priority override these. Creation times are fixed and spaced
// so the earliest-wins tie-break stays stable across re-seeds.
func SeedRules() []model.CategoryRule {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	specs := []struct {
		id        string
		pattern   string
		matchType model.MatchType
		category  string
		conf      float64
	}{
		{"seed-carrefour", "carrefour", model.MatchContains, "groceries", 0.8},
		{"seed-auchan", "auchan", model.MatchContains, "groceries", 0.8},
		{"seed-monoprix", "monoprix", model.MatchContains, "groceries", 0.8},
		{"seed-boulangerie", "boulangerie", model.MatchContains, "restaurants", 0.8},
		{"seed-sncf", "sncf", model.MatchContains, "transport", 0.8},
		{"seed-ratp", "ratp", model.MatchContains, "transport", 0.8},
		{"seed-uber", "uber", model.MatchContains, "transport", 0.8},
		{"seed-edf", "edf", model.MatchContains, "utilities", 0.8},
		{"seed-engie", "engie", model.MatchContains, "utilities", 0.8},
		{"seed-orange", "orange", model.MatchContains, "utilities", 0.8},
		{"seed-netflix", "netflix", model.MatchContains, "subscriptions", 0.8},
		{"seed-spotify", "spotify", model.MatchContains, "subscriptions", 0.8},
		{"seed-loyer", "loyer", model.MatchContains, "housing", 0.8},
		{"seed-pharmacie", "pharmacie", model.MatchContains, "health", 0.8},
		{"seed-salaire", `^vir(ement)?( sepa)? .*salaire`, model.MatchRegex, "income", 0.7},
	}

	rules := make([]model.CategoryRule, 0, len(specs))
	for i, s := range specs {
		rules = append(rules, model.CategoryRule{
			ID:         s.id,
			Pattern:    s.pattern,
			MatchType:  s.matchType,
			CategoryID: s.category,
			Priority:   model.PrioritySeed,
			Confidence: s.conf,
			IsActive:   true,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	return rules
}

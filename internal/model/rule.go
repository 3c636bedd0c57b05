package model

import "time"

// MatchType controls how a rule pattern is compared to a normalized
// transaction description.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchRegex    MatchType = "regex"
)

// Specificity orders match types for tie-breaking: an exact match beats a
// contains match, which beats a regex match. Lower is more specific.
func (m MatchType) Specificity() int {
	switch m {
	case MatchExact:
		return 0
	case MatchContains:
		return 1
	default:
		return 2
	}
}

// Rule priority bands. Seed rules ship with the default config; learned rules
// are created when a user manually categorizes a transaction and sit above the
// seeds so corrections stick.
const (
	PrioritySeed    = 100
	PriorityLearned = 200
)

// CategoryRule maps a description pattern to a category.
type CategoryRule struct {
	ID           string
	Pattern      string
	MatchType    MatchType
	CategoryID   string
	Priority     int    // higher wins
	SourceFilter string // restricts the rule to one institution key; empty = universal
	Confidence   float64
	IsActive     bool
	CreatedAt    time.Time // earliest wins on full tie
}

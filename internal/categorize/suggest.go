package categorize

import (
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/moneta-dev/moneta/internal/normalize"
)

// TrainingSample is one confirmed (description, category) observation,
// typically a transaction with a MANUAL or BANK assignment.
type TrainingSample struct {
	Description string
	CategoryID  string
}

// Suggester offers a best-effort category guess for descriptions no rule
// matches, trained on confirmed assignments. Advisory only: suggestions are
// shown to the user but never persisted as AUTO assignments, so the rule
// engine stays deterministic.
type Suggester struct {
	classifier *bayesian.Classifier
	classes    []bayesian.Class
}

// NewSuggester builds a suggester from a training set. The tf-idf classifier
// is trained once at construction; it needs at least two distinct categories
// and returns nil below that.
func NewSuggester(samples []TrainingSample) *Suggester {
	seen := make(map[string]bool)
	var classes []bayesian.Class
	for _, s := range samples {
		if !seen[s.CategoryID] {
			seen[s.CategoryID] = true
			classes = append(classes, bayesian.Class(s.CategoryID))
		}
	}
	if len(classes) < 2 {
		return nil
	}

	cl := bayesian.NewClassifierTfIdf(classes...)
	for _, s := range samples {
		terms := strings.Fields(normalize.Description(s.Description))
		if len(terms) == 0 {
			continue
		}
		cl.Learn(terms, bayesian.Class(s.CategoryID))
	}
	cl.ConvertTermsFreqToTfIdf()
	return &Suggester{classifier: cl, classes: classes}
}

// Suggest returns the most likely category for a description, or ok=false
// when the description normalizes to nothing.
func (s *Suggester) Suggest(description string) (categoryID string, ok bool) {
	terms := strings.Fields(normalize.Description(description))
	if len(terms) == 0 {
		return "", false
	}
	_, inx, _ := s.classifier.LogScores(terms)
	return string(s.classes[inx]), true
}

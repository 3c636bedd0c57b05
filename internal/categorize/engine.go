// Package categorize assigns spending categories to ledger transactions
// through a deterministic, priority-ordered rule engine, and learns new rules
// from manual corrections.
package categorize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/normalize"
	"github.com/moneta-dev/moneta/internal/store"
)

// Confidence values by assignment origin. Informative only; ties among rules
// are broken by order, never by confidence.
const (
	confidenceLearned  = 0.95
	confidenceTransfer = 0.9
)

// Store is the persistence surface the engine needs.
type Store interface {
	Rules() ([]model.CategoryRule, error)
	PutRule(r model.CategoryRule) error
	GetAssignment(transactionID string) (model.CategoryAssignment, error)
	PutAssignment(a model.CategoryAssignment) error
	TransactionByID(id string) (model.LedgerTransaction, error)
	TransactionsByAccount(accountID string) ([]model.LedgerTransaction, error)
	PutCategory(c model.Category) error
}

// Match is the outcome of a successful rule evaluation.
type Match struct {
	CategoryID string
	Confidence float64
	RuleID     string
}

// Engine evaluates category rules against normalized descriptions.
type Engine struct {
	store Store
	cache *ruleCache
}

// NewEngine creates an Engine with its own rule cache.
func NewEngine(s Store) *Engine {
	return &Engine{store: s, cache: newRuleCache(s.Rules)}
}

// ClearRuleCache invalidates the cached rule set. Call after any rule
// mutation performed outside the engine.
func (e *Engine) ClearRuleCache() {
	e.cache.Invalidate()
}

// Categorize evaluates the rule set against a description. sourceKey names
// the institution the transaction came from; rules with a source filter only
// apply to that institution. The first rule in evaluation order whose pattern
// matches wins.
func (e *Engine) Categorize(description, sourceKey string) (Match, bool, error) {
	rules, err := e.cache.Get()
	if err != nil {
		return Match{}, false, fmt.Errorf("loading rules: %w", err)
	}
	return matchRules(rules, description, sourceKey)
}

// matchRules evaluates an already-ordered snapshot. Split out so batch runs
// can reuse one snapshot across goroutines.
func matchRules(rules []model.CategoryRule, description, sourceKey string) (Match, bool, error) {
	key := normalize.Description(description)
	if key == "" {
		return Match{}, false, nil
	}
	for _, r := range rules {
		if r.SourceFilter != "" && !strings.EqualFold(r.SourceFilter, sourceKey) {
			continue
		}
		if ruleMatches(r, key) {
			return Match{CategoryID: r.CategoryID, Confidence: r.Confidence, RuleID: r.ID}, true, nil
		}
	}
	return Match{}, false, nil
}

func ruleMatches(r model.CategoryRule, normalizedKey string) bool {
	switch r.MatchType {
	case model.MatchExact:
		return normalize.Description(r.Pattern) == normalizedKey
	case model.MatchContains:
		return strings.Contains(normalizedKey, strings.ToLower(strings.TrimSpace(r.Pattern)))
	case model.MatchRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(normalizedKey)
	}
	return false
}

// Recategorize applies a manual category override to one transaction and
// learns from it. Two observable steps: the MANUAL assignment is written
// first, then a rule keyed by the normalized description is upserted at the
// learned priority and the cache invalidated. A rule-upsert failure leaves
// the assignment in place.
func (e *Engine) Recategorize(transactionID, categoryID string) error {
	txn, err := e.store.TransactionByID(transactionID)
	if err != nil {
		return fmt.Errorf("loading transaction %s: %w", transactionID, err)
	}

	err = e.store.PutAssignment(model.CategoryAssignment{
		TransactionID: transactionID,
		CategoryID:    categoryID,
		Source:        model.SourceManual,
		Confidence:    1.0,
		AssignedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("writing assignment: %w", err)
	}

	if err := e.learnRule(txn.Description, categoryID); err != nil {
		return fmt.Errorf("assignment written, learning rule: %w", err)
	}
	return nil
}

// learnRule upserts the exact-match rule for a normalized description at the
// learned priority, then invalidates the cache.
func (e *Engine) learnRule(description, categoryID string) error {
	key := normalize.Description(description)
	if key == "" {
		return nil
	}

	rules, err := e.store.Rules()
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	rule := model.CategoryRule{
		ID:         uuid.NewString(),
		Pattern:    key,
		MatchType:  model.MatchExact,
		CategoryID: categoryID,
		Priority:   model.PriorityLearned,
		Confidence: confidenceLearned,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	for _, existing := range rules {
		if existing.Priority == model.PriorityLearned && existing.MatchType == model.MatchExact && existing.Pattern == key {
			rule.ID = existing.ID
			rule.CreatedAt = existing.CreatedAt
			break
		}
	}
	if err := e.store.PutRule(rule); err != nil {
		return fmt.Errorf("upserting rule: %w", err)
	}
	e.cache.Invalidate()
	return nil
}

// AddRule stores an explicit user-created rule and invalidates the cache.
func (e *Engine) AddRule(r model.CategoryRule) (model.CategoryRule, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.MatchType == model.MatchRegex {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return model.CategoryRule{}, fmt.Errorf("invalid regex pattern: %w", err)
		}
	}
	if err := e.store.PutRule(r); err != nil {
		return model.CategoryRule{}, fmt.Errorf("storing rule: %w", err)
	}
	e.cache.Invalidate()
	return r, nil
}

// AssignAuto writes an AUTO assignment unless the transaction already has an
// authoritative (MANUAL or BANK) one. Reports whether a write happened.
func (e *Engine) AssignAuto(transactionID string, m Match) (bool, error) {
	existing, err := e.store.GetAssignment(transactionID)
	switch {
	case err == nil:
		if existing.Source.Authoritative() {
			return false, nil
		}
	case !errors.Is(err, store.ErrNotFound):
		return false, fmt.Errorf("loading assignment: %w", err)
	}
	err = e.store.PutAssignment(model.CategoryAssignment{
		TransactionID: transactionID,
		CategoryID:    m.CategoryID,
		Source:        model.SourceAuto,
		Confidence:    m.Confidence,
		AssignedAt:    time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("writing assignment: %w", err)
	}
	return true, nil
}

// AssignBank records a category the export itself stated. Bank-provided
// categories carry full confidence and are as permanent as manual ones, so an
// existing authoritative assignment is left alone. The category is created on
// first sight, keyed by a slug of its name.
func (e *Engine) AssignBank(transactionID, bankCategory string) error {
	id := slug(bankCategory)
	if id == "" {
		return nil
	}
	existing, err := e.store.GetAssignment(transactionID)
	switch {
	case err == nil:
		if existing.Source.Authoritative() {
			return nil
		}
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("loading assignment: %w", err)
	}
	if err := e.store.PutCategory(model.Category{ID: id, Name: bankCategory}); err != nil {
		return fmt.Errorf("ensuring category: %w", err)
	}
	err = e.store.PutAssignment(model.CategoryAssignment{
		TransactionID: transactionID,
		CategoryID:    id,
		Source:        model.SourceBank,
		Confidence:    1.0,
		AssignedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("writing assignment: %w", err)
	}
	return nil
}

// ApplyBatch re-categorizes many transactions against a single rule snapshot,
// fanned out over a bounded number of workers. Categorization is a pure
// function of (description, snapshot), so order does not matter, but every
// transaction must see the same rule version. MANUAL and BANK assignments are
// never overwritten. Returns the number of transactions newly assigned.
func (e *Engine) ApplyBatch(txns []model.LedgerTransaction, sourceKey string, workers int) (int, error) {
	rules, err := e.cache.Get()
	if err != nil {
		return 0, fmt.Errorf("loading rules: %w", err)
	}
	if workers < 1 {
		workers = 4
	}

	type result struct {
		txnID string
		match Match
	}
	jobs := make(chan model.LedgerTransaction)
	results := make(chan result, len(txns))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for txn := range jobs {
				if m, ok, _ := matchRules(rules, txn.Description, sourceKey); ok {
					results <- result{txnID: txn.ID, match: m}
				}
			}
		}()
	}
	for _, txn := range txns {
		jobs <- txn
	}
	close(jobs)
	wg.Wait()
	close(results)

	// Assignment writes are serialized; the store has a single writer.
	assigned := 0
	for r := range results {
		ok, err := e.AssignAuto(r.txnID, r.match)
		if err != nil {
			return assigned, err
		}
		if ok {
			assigned++
		}
	}
	return assigned, nil
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_', r == '/':
			return '-'
		}
		return -1
	}, s)
	return strings.Trim(s, "-")
}

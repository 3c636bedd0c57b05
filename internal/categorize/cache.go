package categorize

import (
	"sort"
	"sync"

	"github.com/moneta-dev/moneta/internal/model"
)

// ruleCache holds the active rule set, lazily loaded and explicitly
// invalidated after any rule mutation. It is owned by an Engine instance, not
// a package singleton, so tests can construct isolated engines.
type ruleCache struct {
	mu     sync.Mutex
	loaded bool
	rules  []model.CategoryRule
	load   func() ([]model.CategoryRule, error)
}

func newRuleCache(load func() ([]model.CategoryRule, error)) *ruleCache {
	return &ruleCache{load: load}
}

// Get returns the cached rule snapshot, loading and ordering it on first use.
// The returned slice is shared; callers must not mutate it.
func (c *ruleCache) Get() ([]model.CategoryRule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.rules, nil
	}
	rules, err := c.load()
	if err != nil {
		return nil, err
	}
	active := rules[:0:0]
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	orderRules(active)
	c.rules = active
	c.loaded = true
	return c.rules, nil
}

// Invalidate drops the snapshot. The next Get reloads from the store, so the
// change is visible to subsequent categorization calls immediately.
func (c *ruleCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.rules = nil
	c.mu.Unlock()
}

// orderRules sorts rules into evaluation order: priority descending, then
// match specificity (exact > contains > regex), then creation time ascending
// so the earliest rule wins any remaining tie.
func orderRules(rules []model.CategoryRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if sa, sb := a.MatchType.Specificity(), b.MatchType.Specificity(); sa != sb {
			return sa < sb
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

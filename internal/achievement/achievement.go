// Package achievement evaluates declarative unlock rules against session stats.
package achievement

import (
	"github.com/verte-zerg/petrogames/internal/model"
)

// Predicate reports whether a stats snapshot satisfies a rule. It must be pure.
type Predicate func(stats model.Stats) bool

// Rule is a named unlock condition.
type Rule struct {
	ID          string
	Title       string
	Description string
	Predicate   Predicate
}

// Evaluate returns the ids of rules that are not yet unlocked and whose predicate
// holds, in rule order. It never mutates alreadyUnlocked.
func Evaluate(stats model.Stats, rules []Rule, alreadyUnlocked map[string]struct{}) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, rule := range rules {
		if rule.Predicate == nil {
			continue
		}
		if _, ok := alreadyUnlocked[rule.ID]; ok {
			continue
		}
		if _, ok := seen[rule.ID]; ok {
			continue
		}
		if rule.Predicate(stats) {
			seen[rule.ID] = struct{}{}
			out = append(out, rule.ID)
		}
	}
	return out
}

// Tracker owns the unlocked set of a session.
type Tracker struct {
	rules    []Rule
	byID     map[string]Rule
	unlocked map[string]struct{}
	order    []string
}

// NewTracker returns a tracker over the given rules.
func NewTracker(rules []Rule) *Tracker {
	byID := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}
	return &Tracker{rules: rules, byID: byID, unlocked: map[string]struct{}{}}
}

// Evaluate checks every rule and returns the newly unlocked ones.
func (t *Tracker) Evaluate(stats model.Stats) []Rule {
	ids := Evaluate(stats, t.rules, t.unlocked)
	if len(ids) == 0 {
		return nil
	}
	out := make([]Rule, 0, len(ids))
	for _, id := range ids {
		t.unlocked[id] = struct{}{}
		t.order = append(t.order, id)
		out = append(out, t.byID[id])
	}
	return out
}

// Unlocked returns the unlocked ids in unlock order.
func (t *Tracker) Unlocked() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// IsUnlocked reports whether id was unlocked.
func (t *Tracker) IsUnlocked(id string) bool {
	_, ok := t.unlocked[id]
	return ok
}

// Restore marks ids as already unlocked without notifying.
func (t *Tracker) Restore(ids []string) {
	for _, id := range ids {
		if _, ok := t.unlocked[id]; ok {
			continue
		}
		t.unlocked[id] = struct{}{}
		t.order = append(t.order, id)
	}
}

// Rules returns the tracked rules.
func (t *Tracker) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Rule looks up a rule by id.
func (t *Tracker) Rule(id string) (Rule, bool) {
	r, ok := t.byID[id]
	return r, ok
}

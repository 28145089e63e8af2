package achievement

import (
	"testing"

	"github.com/verte-zerg/petrogames/internal/model"
)

func TestEvaluateSkipsUnlocked(t *testing.T) {
	rules := []Rule{
		{ID: "first", Predicate: func(s model.Stats) bool { return s.RoundsCorrect >= 1 }},
		{ID: "streak3", Predicate: func(s model.Stats) bool { return s.Streak >= 3 }},
	}
	stats := model.Stats{RoundsCorrect: 3, Streak: 3}
	got := Evaluate(stats, rules, map[string]struct{}{"first": {}})
	if len(got) != 1 || got[0] != "streak3" {
		t.Fatalf("unexpected unlocks: %v", got)
	}
}

func TestTrackerNeverRepeats(t *testing.T) {
	tr := NewTracker([]Rule{
		{ID: "first", Title: "First find", Predicate: func(s model.Stats) bool { return s.RoundsCorrect >= 1 }},
		{ID: "hundred", Predicate: func(s model.Stats) bool { return s.TotalPoints >= 100 }},
	})
	seen := map[string]int{}
	for i := 1; i <= 20; i++ {
		for _, r := range tr.Evaluate(model.Stats{RoundsCorrect: i, TotalPoints: i * 10}) {
			seen[r.ID]++
		}
	}
	if seen["first"] != 1 || seen["hundred"] != 1 {
		t.Fatalf("expected each achievement once, got %v", seen)
	}
	if got := tr.Unlocked(); len(got) != 2 || got[0] != "first" || got[1] != "hundred" {
		t.Fatalf("unexpected unlock order: %v", got)
	}
}

func TestTrackerRestore(t *testing.T) {
	tr := NewTracker([]Rule{{ID: "first", Predicate: func(model.Stats) bool { return true }}})
	tr.Restore([]string{"first"})
	if got := tr.Evaluate(model.Stats{}); len(got) != 0 {
		t.Fatalf("expected restored achievement to stay silent, got %v", got)
	}
	if !tr.IsUnlocked("first") {
		t.Fatalf("expected first to be unlocked")
	}
}

func TestCompileExpr(t *testing.T) {
	rule, err := CompileExpr("sharp", "Sharp eye", "streak >= 5 && accuracy >= 0.8")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if rule.Predicate(model.Stats{Streak: 4, Accuracy: 1}) {
		t.Fatalf("expected predicate false at streak 4")
	}
	if !rule.Predicate(model.Stats{Streak: 5, Accuracy: 0.8}) {
		t.Fatalf("expected predicate true at streak 5")
	}
	// Predicates are pure: evaluating again gives the same answer.
	if !rule.Predicate(model.Stats{Streak: 5, Accuracy: 0.8}) {
		t.Fatalf("expected repeated evaluation to agree")
	}
}

func TestCompileExprErrors(t *testing.T) {
	if _, err := CompileExpr("empty", "", "  "); err == nil {
		t.Fatalf("expected error for empty expression")
	}
	if _, err := CompileExpr("bad", "", "streak >= "); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := CompileExpr("unknown", "", "mystery > 1"); err == nil {
		t.Fatalf("expected error for unknown variable")
	}
}

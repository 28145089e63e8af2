package ladder

import (
	"math/rand"
	"testing"

	"github.com/verte-zerg/petrogames/internal/model"
)

func twoLevels() []model.Level {
	return []model.Level{
		{ID: "l2", Order: 2, RequiredScore: 2, RequiredRounds: 3, TimeLimitSeconds: 60},
		{ID: "l1", Order: 1, RequiredScore: 3, RequiredRounds: 5, TimeLimitSeconds: 300},
	}
}

func record(l *Ladder, outcomes ...bool) Transition {
	tr := Continue
	for _, ok := range outcomes {
		l.Record(model.RoundOutcome{Correct: ok, PointsAwarded: 10})
		tr = l.Evaluate()
	}
	return tr
}

func TestLadderAdvancesAfterBatch(t *testing.T) {
	l, err := New(twoLevels())
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	if l.Current().ID != "l1" {
		t.Fatalf("expected levels ordered by order, got %q", l.Current().ID)
	}
	if tr := record(l, true, true, false, true); tr != Continue {
		t.Fatalf("expected batch in progress, got %v", tr)
	}
	if got := l.Progress().Correct; got != 3 {
		t.Fatalf("expected 3 correct so far, got %d", got)
	}
	if tr := record(l, true); tr != Advanced {
		t.Fatalf("expected advance with 4 of 5 correct, got %v", tr)
	}
	if l.Index() != 1 || l.Progress() != (Progress{}) {
		t.Fatalf("expected fresh counters on level 2, got index %d progress %+v", l.Index(), l.Progress())
	}
	if tr := record(l, true, true, false); tr != Completed {
		t.Fatalf("expected completion, got %v", tr)
	}
	if !l.Done() || l.Cleared() != 2 {
		t.Fatalf("expected ladder done with 2 cleared")
	}
	if tr := record(l, false); tr != Completed {
		t.Fatalf("expected completed ladder to stay terminal, got %v", tr)
	}
}

func TestLadderFailsAndRetries(t *testing.T) {
	l, err := New(twoLevels())
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	if tr := record(l, false, false, true, false, true); tr != Failed {
		t.Fatalf("expected failure with 2 of 5 correct, got %v", tr)
	}
	l.Record(model.RoundOutcome{Correct: true})
	if l.Progress().Attempted != 5 {
		t.Fatalf("expected failed ladder to ignore records until retry")
	}
	l.Retry()
	if l.Index() != 0 || l.Progress() != (Progress{}) {
		t.Fatalf("expected retry on same level with fresh counters")
	}
	if tr := record(l, true, true, true, false, false); tr != Advanced {
		t.Fatalf("expected advance after retry, got %v", tr)
	}
}

func TestLadderNeverMovesMoreThanOneLevel(t *testing.T) {
	levels := []model.Level{
		{ID: "a", Order: 1, RequiredScore: 1, RequiredRounds: 2},
		{ID: "b", Order: 2, RequiredScore: 1, RequiredRounds: 2},
		{ID: "c", Order: 3, RequiredScore: 2, RequiredRounds: 2},
		{ID: "d", Order: 4, RequiredScore: 30, ScoreBasis: model.ScoreBasisPoints},
	}
	l, err := New(levels)
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	rnd := rand.New(rand.NewSource(42))
	prev := l.Index()
	for i := 0; i < 500 && !l.Done(); i++ {
		l.Record(model.RoundOutcome{Correct: rnd.Intn(3) > 0, PointsAwarded: rnd.Intn(20)})
		tr := l.Evaluate()
		if tr == Failed {
			l.Retry()
		}
		cur := l.Index()
		if cur < prev || cur-prev > 1 {
			t.Fatalf("ladder jumped from %d to %d", prev, cur)
		}
		prev = cur
	}
}

func TestLadderPointsBasisWithoutRoundCount(t *testing.T) {
	l, err := New([]model.Level{{ID: "p", Order: 1, RequiredScore: 25, ScoreBasis: model.ScoreBasisPoints}})
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	l.Record(model.RoundOutcome{Correct: true, PointsAwarded: 20})
	if tr := l.Evaluate(); tr != Continue {
		t.Fatalf("expected continue below threshold, got %v", tr)
	}
	l.Record(model.RoundOutcome{Correct: true, PointsAwarded: 10})
	if tr := l.Evaluate(); tr != Completed {
		t.Fatalf("expected completion at threshold, got %v", tr)
	}
}

func TestLadderExpire(t *testing.T) {
	l, err := New([]model.Level{
		{ID: "a", Order: 1, RequiredScore: 2, TimerScope: model.TimerScopeLevel, TimeLimitSeconds: 30},
		{ID: "b", Order: 2, RequiredScore: 2, TimerScope: model.TimerScopeLevel, TimeLimitSeconds: 30},
	})
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	l.Record(model.RoundOutcome{Correct: true})
	if tr := l.Expire(); tr != Failed {
		t.Fatalf("expected expiry below threshold to fail, got %v", tr)
	}
	l.Retry()
	if tr := record(l, true, true); tr != Advanced {
		t.Fatalf("expected advance, got %v", tr)
	}
}

func TestNewRejectsInconsistentLevels(t *testing.T) {
	cases := map[string][]model.Level{
		"empty":        nil,
		"impossible":   {{ID: "a", Order: 1, RequiredScore: 6, RequiredRounds: 5}},
		"no threshold": {{ID: "a", Order: 1}},
		"dup order":    {{ID: "a", Order: 1, RequiredScore: 1}, {ID: "b", Order: 1, RequiredScore: 1}},
		"dup id":       {{ID: "a", Order: 1, RequiredScore: 1}, {ID: "a", Order: 2, RequiredScore: 1}},
		"bad basis":    {{ID: "a", Order: 1, RequiredScore: 1, ScoreBasis: "stars"}},
	}
	for name, levels := range cases {
		if _, err := New(levels); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRestore(t *testing.T) {
	l, err := New(twoLevels())
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	if err := l.Restore(1); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if l.Current().ID != "l2" || l.Cleared() != 1 {
		t.Fatalf("unexpected restored state: %s cleared %d", l.Current().ID, l.Cleared())
	}
	if err := l.Restore(5); err == nil {
		t.Fatalf("expected out of range error")
	}
}

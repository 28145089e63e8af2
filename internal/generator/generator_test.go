package generator

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/verte-zerg/petrogames/internal/catalog"
	"github.com/verte-zerg/petrogames/internal/match"
	"github.com/verte-zerg/petrogames/internal/model"
)

func loadGame(t *testing.T, id string) catalog.Game {
	t.Helper()
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	g, ok := c.Get(id)
	if !ok {
		t.Fatalf("missing game %s", id)
	}
	return g
}

func validate(t *testing.T, target match.Target, candidates []model.Candidate, selection []string) match.Result {
	t.Helper()
	v, err := match.For(target, candidates)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	return v.Validate(selection)
}

func TestGroupBoard(t *testing.T) {
	g := loadGame(t, "memory")
	level := g.LevelList()[0]
	ch, err := New(g).Challenge(level, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if len(ch.Candidates) != level.BoardSize*level.GroupSize {
		t.Fatalf("expected %d cards, got %d", level.BoardSize*level.GroupSize, len(ch.Candidates))
	}
	byKey := map[string][]string{}
	ids := map[string]struct{}{}
	for _, c := range ch.Candidates {
		if _, dup := ids[c.ID]; dup {
			t.Fatalf("duplicate candidate id %s", c.ID)
		}
		ids[c.ID] = struct{}{}
		byKey[c.Key] = append(byKey[c.Key], c.ID)
	}
	for key, group := range byKey {
		if got := validate(t, ch.Target, ch.Candidates, group); got != match.Matched {
			t.Fatalf("group %s: expected matched, got %v", key, got)
		}
	}
}

func TestPickLabelContainsAnswer(t *testing.T) {
	g := loadGame(t, "classification")
	level := g.LevelList()[2]
	rnd := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		ch, err := New(g).Challenge(level, rnd)
		if err != nil {
			t.Fatalf("challenge: %v", err)
		}
		if len(ch.Candidates) != level.Choices {
			t.Fatalf("expected %d choices, got %d", level.Choices, len(ch.Candidates))
		}
		if got := validate(t, ch.Target, ch.Candidates, []string{ch.Target.Category}); got != match.Matched {
			t.Fatalf("expected the answer among the choices, got %v", got)
		}
		if len(ch.Subjects) != 1 {
			t.Fatalf("expected one subject, got %v", ch.Subjects)
		}
	}
}

func TestPickItemUsesExpectedCategory(t *testing.T) {
	g := loadGame(t, "site-safety")
	level := g.LevelList()[1]
	ch, err := New(g).Challenge(level, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	safe := 0
	for _, c := range ch.Candidates {
		if c.Category == "safe" {
			safe++
		}
	}
	if safe != 1 || ch.Target.Category != "safe" {
		t.Fatalf("expected one safe action and a safe target, got %d/%q", safe, ch.Target.Category)
	}
}

func TestOrderedSequenceFollowsPool(t *testing.T) {
	g := loadGame(t, "story")
	level := g.LevelList()[0]
	ch, err := New(g).Challenge(level, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if len(ch.Target.Sequence) != level.SequenceLength {
		t.Fatalf("expected %d steps, got %d", level.SequenceLength, len(ch.Target.Sequence))
	}
	for i := 1; i < len(ch.Target.Sequence); i++ {
		if ch.Target.Sequence[i-1] >= ch.Target.Sequence[i] {
			t.Fatalf("expected story order, got %v", ch.Target.Sequence)
		}
	}
	bySymbol := map[string]string{}
	for _, c := range ch.Candidates {
		bySymbol[c.Symbol] = c.ID
	}
	var sel []string
	for _, sym := range ch.Target.Sequence {
		sel = append(sel, bySymbol[sym])
	}
	if got := validate(t, ch.Target, ch.Candidates, sel); got != match.Matched {
		t.Fatalf("expected matched, got %v", got)
	}
}

func TestRandomSequenceUsesPads(t *testing.T) {
	g := loadGame(t, "sound")
	level := g.LevelList()[0]
	ch, err := New(g).Challenge(level, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if len(ch.Candidates) != level.Choices {
		t.Fatalf("expected %d pads, got %d", level.Choices, len(ch.Candidates))
	}
	pads := map[string]struct{}{}
	for _, c := range ch.Candidates {
		pads[c.Symbol] = struct{}{}
	}
	for _, sym := range ch.Target.Sequence {
		if _, ok := pads[sym]; !ok {
			t.Fatalf("sequence symbol %s has no pad", sym)
		}
	}
}

func TestSameSeedSameChallenge(t *testing.T) {
	g := loadGame(t, "pattern-creation")
	level := g.LevelList()[1]
	a, err := New(g).Challenge(level, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	b, err := New(g).Challenge(level, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical challenges for the same seed")
	}
}

func TestWeightedPrefersWeakKeys(t *testing.T) {
	g := loadGame(t, "classification")
	level := g.LevelList()[0]
	gen := Weighted(g, []string{"comet"}, 50)
	rnd := rand.New(rand.NewSource(7))
	hits := 0
	for i := 0; i < 200; i++ {
		ch, err := gen.Challenge(level, rnd)
		if err != nil {
			t.Fatalf("challenge: %v", err)
		}
		if ch.Subjects[0] == "comet" {
			hits++
		}
	}
	if hits < 100 {
		t.Fatalf("expected weak key to dominate, got %d/200", hits)
	}
}

// Package generator builds randomized challenges from a game's item pool.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/petrogames/internal/catalog"
	"github.com/verte-zerg/petrogames/internal/match"
	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/round"
)

// Generator produces challenges for one game. It satisfies round.Source.
type Generator struct {
	game   catalog.Game
	weak   map[string]struct{}
	factor float64
}

// New returns a Generator that draws items uniformly.
func New(game catalog.Game) *Generator {
	return &Generator{game: game}
}

// Weighted returns a Generator biased toward weak item keys.
func Weighted(game catalog.Game, weakKeys []string, factor float64) *Generator {
	g := &Generator{game: game}
	g.Reweight(weakKeys, factor)
	return g
}

// Reweight replaces the weak keys. Sessions already built on g pick it up from
// their next challenge.
func (g *Generator) Reweight(weakKeys []string, factor float64) {
	g.weak = make(map[string]struct{}, len(weakKeys))
	for _, k := range weakKeys {
		g.weak[k] = struct{}{}
	}
	g.factor = factor
}

// Game returns the definition the generator draws from.
func (g *Generator) Game() catalog.Game {
	return g.game
}

// Session builds a round controller that plays this game with challenges from g.
func (g *Generator) Session(rnd *rand.Rand, displayFor time.Duration, now func() time.Time) (*round.Controller, error) {
	rules, err := g.game.Rules()
	if err != nil {
		return nil, err
	}
	return round.New(round.Config{
		GameID:     g.game.ID,
		Levels:     g.game.LevelList(),
		Rules:      rules,
		Scoring:    g.game.Policy(),
		DisplayFor: displayFor,
		Now:        now,
	}, g, rnd)
}

// Challenge implements round.Source.
func (g *Generator) Challenge(level model.Level, rnd *rand.Rand) (round.Challenge, error) {
	switch g.game.Mode {
	case match.ModeGroup:
		return g.group(level, rnd)
	case match.ModeCategory:
		if g.game.Style == catalog.StylePickItem {
			return g.pickItem(level, rnd)
		}
		return g.pickLabel(level, rnd)
	case match.ModeSequence:
		return g.sequence(level, rnd)
	default:
		return round.Challenge{}, fmt.Errorf("generator: unknown mode %q", g.game.Mode)
	}
}

func (g *Generator) group(level model.Level, rnd *rand.Rand) (round.Challenge, error) {
	size := level.GroupSize
	if size < 2 {
		size = 2
	}
	chosen := g.pickDistinct(rnd, g.game.Items, level.BoardSize)
	if len(chosen) == 0 {
		return round.Challenge{}, errors.New("generator: empty board")
	}
	candidates := make([]model.Candidate, 0, len(chosen)*size)
	for _, it := range chosen {
		for i := 0; i < size; i++ {
			c := candidate(it)
			c.ID = fmt.Sprintf("%s#%d", it.Key, i+1)
			candidates = append(candidates, c)
		}
	}
	rnd.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	return round.Challenge{
		Prompt:     g.prompt(nil, nil),
		Candidates: candidates,
		Target:     match.Target{Mode: match.ModeGroup, GroupSize: size},
		Hint:       fmt.Sprintf("%d sets of %d are hidden on this board.", len(chosen), size),
	}, nil
}

// pickItem shows several items and asks for the one in the expected category.
func (g *Generator) pickItem(level model.Level, rnd *rand.Rand) (round.Challenge, error) {
	expected := g.game.Expected
	pool := g.game.Items
	if expected != "" {
		pool = filter(g.game.Items, func(it catalog.ItemSpec) bool { return it.Category == expected })
	}
	answer, ok := g.pickOne(rnd, pool)
	if !ok {
		return round.Challenge{}, errors.New("generator: no item for expected category")
	}
	others := filter(g.game.Items, func(it catalog.ItemSpec) bool { return it.Category != answer.Category })
	distractors := g.pickDistinct(rnd, others, choices(level)-1)
	items := append([]catalog.ItemSpec{answer}, distractors...)
	rnd.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	candidates := make([]model.Candidate, len(items))
	for i, it := range items {
		candidates[i] = candidate(it)
	}
	return round.Challenge{
		Prompt:     g.prompt(&answer, nil),
		Candidates: candidates,
		Target:     match.Target{Mode: match.ModeCategory, Category: answer.Category},
		Hint:       answer.Hint,
		Subjects:   []string{answer.Key},
	}, nil
}

// pickLabel shows one item and asks for its category.
func (g *Generator) pickLabel(level model.Level, rnd *rand.Rand) (round.Challenge, error) {
	answer, ok := g.pickOne(rnd, g.game.Items)
	if !ok {
		return round.Challenge{}, errors.New("generator: empty pool")
	}
	var others []string
	for _, cat := range g.game.Categories() {
		if cat != answer.Category {
			others = append(others, cat)
		}
	}
	rnd.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	n := choices(level) - 1
	if n > len(others) {
		n = len(others)
	}
	labels := append([]string{answer.Category}, others[:n]...)
	rnd.Shuffle(len(labels), func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	candidates := make([]model.Candidate, len(labels))
	for i, label := range labels {
		candidates[i] = model.Candidate{ID: label, Key: label, Category: label, Label: label}
	}
	return round.Challenge{
		Prompt:     g.prompt(&answer, nil),
		Candidates: candidates,
		Target:     match.Target{Mode: match.ModeCategory, Category: answer.Category},
		Hint:       answer.Hint,
		Subjects:   []string{answer.Key},
	}, nil
}

func (g *Generator) sequence(level model.Level, rnd *rand.Rand) (round.Challenge, error) {
	length := level.SequenceLength
	if length < 1 {
		return round.Challenge{}, errors.New("generator: sequence length must be positive")
	}
	var target []catalog.ItemSpec
	var pads []catalog.ItemSpec
	if g.game.Order == catalog.OrderOrdered {
		// Keep pool order: the answer is the chosen items in the order they are listed.
		picked := g.pickDistinct(rnd, g.game.Items, length)
		index := make(map[string]int, len(g.game.Items))
		for i, it := range g.game.Items {
			index[it.Key] = i
		}
		target = append(target, picked...)
		sort.Slice(target, func(i, j int) bool { return index[target[i].Key] < index[target[j].Key] })
		pads = append(pads, picked...)
	} else {
		n := level.Choices
		if n <= 0 || n > len(g.game.Items) {
			n = len(g.game.Items)
		}
		pads = g.pickDistinct(rnd, g.game.Items, n)
		for i := 0; i < length; i++ {
			it, _ := g.pickOne(rnd, pads)
			target = append(target, it)
		}
	}
	rnd.Shuffle(len(pads), func(i, j int) { pads[i], pads[j] = pads[j], pads[i] })

	candidates := make([]model.Candidate, len(pads))
	for i, it := range pads {
		candidates[i] = candidate(it)
	}
	symbols := make([]string, len(target))
	keys := make([]string, 0, len(target))
	seen := make(map[string]struct{}, len(target))
	for i, it := range target {
		symbols[i] = it.Symbol
		if _, ok := seen[it.Key]; !ok {
			seen[it.Key] = struct{}{}
			keys = append(keys, it.Key)
		}
	}
	hint := target[0].Hint
	if hint == "" {
		hint = fmt.Sprintf("It starts with %s.", target[0].Label)
	}
	return round.Challenge{
		Prompt:     g.prompt(nil, target),
		Candidates: candidates,
		Target:     match.Target{Mode: match.ModeSequence, Sequence: symbols},
		Hint:       hint,
		Subjects:   keys,
	}, nil
}

func (g *Generator) prompt(subject *catalog.ItemSpec, sequence []catalog.ItemSpec) string {
	pairs := []string{"{expected}", g.game.Expected}
	if subject != nil {
		pairs = append(pairs,
			"{label}", subject.Label,
			"{symbol}", subject.Symbol,
			"{category}", subject.Category,
		)
	}
	if sequence != nil {
		labels := make([]string, len(sequence))
		for i, it := range sequence {
			labels[i] = it.Label
		}
		pairs = append(pairs, "{sequence}", strings.Join(labels, " - "))
	}
	return strings.NewReplacer(pairs...).Replace(g.game.Prompt)
}

func (g *Generator) weight(it catalog.ItemSpec) float64 {
	if _, ok := g.weak[it.Key]; ok {
		return 1.0 + g.factor
	}
	return 1.0
}

// pickOne draws one item with a bias toward weak keys.
func (g *Generator) pickOne(rnd *rand.Rand, items []catalog.ItemSpec) (catalog.ItemSpec, bool) {
	if len(items) == 0 {
		return catalog.ItemSpec{}, false
	}
	total := 0.0
	for _, it := range items {
		total += g.weight(it)
	}
	r := rnd.Float64() * total
	acc := 0.0
	for _, it := range items {
		acc += g.weight(it)
		if r <= acc {
			return it, true
		}
	}
	return items[len(items)-1], true
}

// pickDistinct draws up to n distinct items without replacement.
func (g *Generator) pickDistinct(rnd *rand.Rand, items []catalog.ItemSpec, n int) []catalog.ItemSpec {
	if n > len(items) {
		n = len(items)
	}
	pool := append([]catalog.ItemSpec(nil), items...)
	out := make([]catalog.ItemSpec, 0, n)
	for len(out) < n {
		it, _ := g.pickOne(rnd, pool)
		out = append(out, it)
		for i := range pool {
			if pool[i].Key == it.Key {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	return out
}

func candidate(it catalog.ItemSpec) model.Candidate {
	return model.Candidate{
		ID:       it.Key,
		Key:      it.Key,
		Category: it.Category,
		Symbol:   it.Symbol,
		Label:    it.Label,
	}
}

func choices(level model.Level) int {
	if level.Choices < 2 {
		return 2
	}
	return level.Choices
}

func filter(items []catalog.ItemSpec, keep func(catalog.ItemSpec) bool) []catalog.ItemSpec {
	var out []catalog.ItemSpec
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

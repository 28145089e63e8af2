// Package match validates candidate selections against a target pattern.
package match

import (
	"fmt"

	"github.com/verte-zerg/petrogames/internal/model"
)

// Result is the verdict for a selection.
type Result int

const (
	// Pending means the selection is not complete yet.
	Pending Result = iota
	// Matched means the complete selection satisfies the target.
	Matched
	// Unmatched means the complete selection does not satisfy the target.
	Unmatched
)

func (r Result) String() string {
	switch r {
	case Matched:
		return "matched"
	case Unmatched:
		return "unmatched"
	default:
		return "pending"
	}
}

// Mode names a validator variant.
type Mode string

// Validator modes.
const (
	ModeGroup    Mode = "group"
	ModeCategory Mode = "category"
	ModeSequence Mode = "sequence"
)

// Validator decides whether a selection of candidate ids matches.
type Validator interface {
	Required() int
	Validate(selection []string) Result
}

// Target describes what a challenge expects.
type Target struct {
	Mode      Mode
	GroupSize int
	Category  string
	Sequence  []string
}

// For builds the validator of a target over the given candidates.
func For(target Target, candidates []model.Candidate) (Validator, error) {
	byID := make(map[string]model.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	switch target.Mode {
	case ModeGroup:
		size := target.GroupSize
		if size < 2 {
			return nil, fmt.Errorf("group size must be >= 2, got %d", size)
		}
		return Group{Size: size, Key: lookup(byID, func(c model.Candidate) string { return c.Key })}, nil
	case ModeCategory:
		if target.Category == "" {
			return nil, fmt.Errorf("category target has no label")
		}
		return Category{Expected: target.Category, Label: lookup(byID, func(c model.Candidate) string { return c.Category })}, nil
	case ModeSequence:
		if len(target.Sequence) == 0 {
			return nil, fmt.Errorf("sequence target is empty")
		}
		return Sequence{Target: target.Sequence, Symbol: lookup(byID, func(c model.Candidate) string { return c.Symbol })}, nil
	default:
		return nil, fmt.Errorf("unknown match mode %q", target.Mode)
	}
}

func lookup(byID map[string]model.Candidate, field func(model.Candidate) string) func(string) (string, bool) {
	return func(id string) (string, bool) {
		c, ok := byID[id]
		if !ok {
			return "", false
		}
		return field(c), true
	}
}

// Group matches when every selected candidate shares the same key.
type Group struct {
	Size int
	Key  func(id string) (string, bool)
}

// Required implements Validator.
func (g Group) Required() int {
	return g.Size
}

// Validate implements Validator.
func (g Group) Validate(selection []string) Result {
	if len(selection) < g.Size {
		return Pending
	}
	first, ok := g.Key(selection[0])
	if !ok {
		return Unmatched
	}
	for _, id := range selection[1:g.Size] {
		key, ok := g.Key(id)
		if !ok || key != first {
			return Unmatched
		}
	}
	return Matched
}

// Category matches when the single selection carries the expected label.
type Category struct {
	Expected string
	Label    func(id string) (string, bool)
}

// Required implements Validator.
func (c Category) Required() int {
	return 1
}

// Validate implements Validator.
func (c Category) Validate(selection []string) Result {
	if len(selection) < 1 {
		return Pending
	}
	label, ok := c.Label(selection[0])
	if !ok || label != c.Expected {
		return Unmatched
	}
	return Matched
}

// Sequence matches when the ordered selection equals the target position by position.
type Sequence struct {
	Target []string
	Symbol func(id string) (string, bool)
}

// Required implements Validator.
func (s Sequence) Required() int {
	return len(s.Target)
}

// Validate implements Validator.
func (s Sequence) Validate(selection []string) Result {
	if len(selection) < len(s.Target) {
		return Pending
	}
	for i, want := range s.Target {
		got, ok := s.Symbol(selection[i])
		if !ok || got != want {
			return Unmatched
		}
	}
	return Matched
}

// FirstMismatch returns the first position where selection diverges from target,
// or -1 when every compared position agrees.
func FirstMismatch(target, selection []string) int {
	for i := range target {
		if i >= len(selection) {
			return -1
		}
		if target[i] != selection[i] {
			return i
		}
	}
	return -1
}

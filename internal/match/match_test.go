package match

import (
	"testing"

	"github.com/verte-zerg/petrogames/internal/model"
)

func soundBoard() []model.Candidate {
	return []model.Candidate{
		{ID: "s1", Symbol: "drum"},
		{ID: "s2", Symbol: "chant"},
		{ID: "s3", Symbol: "bells"},
	}
}

func TestSequenceMismatchAtLastPosition(t *testing.T) {
	v, err := For(Target{Mode: ModeSequence, Sequence: []string{"drum", "chant", "bells"}}, soundBoard())
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}
	if got := v.Validate([]string{"s1", "s2", "s1"}); got != Unmatched {
		t.Fatalf("expected unmatched, got %v", got)
	}
	if got := v.Validate([]string{"s1", "s2", "s3"}); got != Matched {
		t.Fatalf("expected matched, got %v", got)
	}
	if pos := FirstMismatch([]string{"drum", "chant", "bells"}, []string{"drum", "chant", "drum"}); pos != 2 {
		t.Fatalf("expected mismatch at index 2, got %d", pos)
	}
}

func TestGroupPendingBelowSize(t *testing.T) {
	cands := []model.Candidate{
		{ID: "a1", Key: "spiral"}, {ID: "a2", Key: "spiral"}, {ID: "a3", Key: "spiral"},
		{ID: "b1", Key: "hand"},
	}
	for size := 2; size <= 3; size++ {
		v, err := For(Target{Mode: ModeGroup, GroupSize: size}, cands)
		if err != nil {
			t.Fatalf("build validator: %v", err)
		}
		sel := []string{}
		for _, id := range []string{"a1", "a2", "a3"}[:size-1] {
			sel = append(sel, id)
			if got := v.Validate(sel); got != Pending {
				t.Fatalf("size %d: expected pending for %v, got %v", size, sel, got)
			}
		}
		if got := v.Validate(append(sel, "a3")); got != Matched {
			t.Fatalf("size %d: expected matched, got %v", size, got)
		}
		if got := v.Validate(append(sel, "b1")); got != Unmatched {
			t.Fatalf("size %d: expected unmatched, got %v", size, got)
		}
	}
}

func TestCategory(t *testing.T) {
	cands := []model.Candidate{{ID: "x", Category: "zoomorphic"}, {ID: "y", Category: "geometric"}}
	v, err := For(Target{Mode: ModeCategory, Category: "geometric"}, cands)
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}
	if got := v.Validate(nil); got != Pending {
		t.Fatalf("expected pending, got %v", got)
	}
	if got := v.Validate([]string{"x"}); got != Unmatched {
		t.Fatalf("expected unmatched, got %v", got)
	}
	if got := v.Validate([]string{"y"}); got != Matched {
		t.Fatalf("expected matched, got %v", got)
	}
}

func TestUnknownCandidateNeverMatches(t *testing.T) {
	v, err := For(Target{Mode: ModeGroup, GroupSize: 2}, []model.Candidate{{ID: "a", Key: ""}})
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}
	if got := v.Validate([]string{"a", "ghost"}); got != Unmatched {
		t.Fatalf("expected unknown id to be unmatched, got %v", got)
	}
}

func TestForRejectsBadTargets(t *testing.T) {
	bad := []Target{
		{Mode: ModeGroup, GroupSize: 1},
		{Mode: ModeCategory},
		{Mode: ModeSequence},
		{Mode: "chord"},
	}
	for _, target := range bad {
		if _, err := For(target, nil); err == nil {
			t.Fatalf("expected error for %+v", target)
		}
	}
}

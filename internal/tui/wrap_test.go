package tui

import "testing"

func TestWrapChips(t *testing.T) {
	chips := []chip{{s: "aaa", width: 3}, {s: "bb", width: 2}, {s: "cccc", width: 4}}
	if got := wrapChips(chips, 8, 1); got != "aaa bb\ncccc" {
		t.Fatalf("unexpected layout %q", got)
	}
	if got := wrapChips(chips, 0, 2); got != "aaa  bb  cccc" {
		t.Fatalf("expected a single row without width, got %q", got)
	}
}

func TestWrapChipsKeepsOversizedChip(t *testing.T) {
	chips := []chip{{s: "wide", width: 10}, {s: "x", width: 1}}
	if got := wrapChips(chips, 5, 1); got != "wide\nx" {
		t.Fatalf("unexpected layout %q", got)
	}
}

func TestWrapWords(t *testing.T) {
	if got := wrapWords("Which find belongs to the hearth layer?", 12); got != "Which find\nbelongs to\nthe hearth\nlayer?" {
		t.Fatalf("unexpected wrap %q", got)
	}
	if got := wrapWords("abcdefgh", 3); got != "abc\ndef\ngh" {
		t.Fatalf("expected long word split, got %q", got)
	}
	if got := wrapWords("太陽 石", 4); got != "太陽\n石" {
		t.Fatalf("expected wide runes measured, got %q", got)
	}
}

func TestReverseRunes(t *testing.T) {
	if got := reverseRunes("Sun ☼"); got != "☼ nuS" {
		t.Fatalf("unexpected mirror %q", got)
	}
}

package stats

import (
	"testing"

	"github.com/verte-zerg/petrogames/internal/model"
)

func TestTopItemsByFrequency(t *testing.T) {
	aggs := []model.ItemAggregate{
		{Key: "sun", Correct: 3, Incorrect: 1},
		{Key: "moon", Correct: 2, Incorrect: 2},
		{Key: "hand", Correct: 1},
	}
	top := TopItemsByFrequency(aggs, 2)
	if len(top) != 2 || top[0] != "moon" || top[1] != "sun" {
		t.Fatalf("unexpected order: %v", top)
	}
}

func TestSelectWeakItems(t *testing.T) {
	aggs := []model.ItemAggregate{
		{Key: "sun", Correct: 9, Incorrect: 1},
		{Key: "moon", Correct: 1, Incorrect: 3},
		{Key: "hand"},
		{Key: "deer", Correct: 1, Incorrect: 1},
	}
	weak := SelectWeakItems(aggs, 2)
	if len(weak) != 2 || weak[0] != "moon" || weak[1] != "deer" {
		t.Fatalf("unexpected weak items: %v", weak)
	}
	if got := SelectWeakItems(nil, 3); got != nil {
		t.Fatalf("expected nil for no data, got %v", got)
	}
}

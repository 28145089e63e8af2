package stats

import (
	"sort"

	"github.com/verte-zerg/petrogames/internal/model"
)

// TopItemsByFrequency returns the n most attempted item keys.
func TopItemsByFrequency(aggs []model.ItemAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	sorted := append([]model.ItemAggregate(nil), aggs...)
	attempts := func(a model.ItemAggregate) int { return a.Correct + a.Incorrect }
	sort.Slice(sorted, func(i, j int) bool {
		if attempts(sorted[i]) == attempts(sorted[j]) {
			return sorted[i].Key < sorted[j].Key
		}
		return attempts(sorted[i]) > attempts(sorted[j])
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = sorted[i].Key
	}
	return out
}

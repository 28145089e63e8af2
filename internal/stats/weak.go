package stats

import (
	"sort"

	"github.com/verte-zerg/petrogames/internal/model"
)

// SelectWeakItems returns up to top item keys with the lowest accuracy.
// Items never attempted count as fully accurate.
func SelectWeakItems(aggs []model.ItemAggregate, top int) []string {
	if len(aggs) == 0 {
		return nil
	}
	sorted := append([]model.ItemAggregate(nil), aggs...)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := itemAccuracy(sorted[i]), itemAccuracy(sorted[j])
		if ai == aj {
			return sorted[i].Key < sorted[j].Key
		}
		return ai < aj
	})
	if top <= 0 || top > len(sorted) {
		top = len(sorted)
	}
	keys := make([]string, 0, top)
	for _, agg := range sorted[:top] {
		keys = append(keys, agg.Key)
	}
	return keys
}

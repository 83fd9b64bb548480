package stats

import (
	"github.com/verte-zerg/typemeter/internal/model"
)

// SelectWeakKeys returns the keys with the highest miss rates. Keys that were
// never missed are not weak, and whitespace is ignored.
func SelectWeakKeys(aggs []model.KeyAggregate, top int) map[string]struct{} {
	weak := map[string]struct{}{}
	candidates := make([]model.KeyAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Misses == 0 || KeyLabel(agg.Key) != agg.Key {
			continue
		}
		candidates = append(candidates, agg)
	}
	rows := KeyRows(candidates)
	if top <= 0 || top > len(rows) {
		top = len(rows)
	}
	for _, r := range rows[:top] {
		weak[r.Key] = struct{}{}
	}
	return weak
}

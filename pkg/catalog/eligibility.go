package catalog

import "sort"

// SelectPurgeable applies the eligibility rules to an in-memory stage set.
// Key-value backends use it after loading stages; sqlstore expresses the same
// rules in SQL.
func SelectPurgeable(stages []Stage, protected map[StageKey]bool, limit int, keepLatest bool) []Stage {
	var latest map[StageKey]Stage
	if keepLatest {
		latest = make(map[StageKey]Stage)
		for _, s := range stages {
			if !s.Completed() {
				continue
			}
			if cur, ok := latest[s.Key()]; !ok || s.NewerThan(cur) {
				latest[s.Key()] = s
			}
		}
	}

	out := make([]Stage, 0)
	for _, s := range stages {
		if !s.Completed() || s.ArtifactsDeleted || s.Keep || protected[s.Key()] {
			continue
		}
		if keepLatest && latest[s.Key()].ID == s.ID {
			continue
		}
		out = append(out, s)
	}

	SortOldestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortOldestFirst orders completed stages by completion time, then ID.
func SortOldestFirst(stages []Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		a, b := stages[i].CompletedAt, stages[j].CompletedAt
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return stages[i].ID < stages[j].ID
	})
}

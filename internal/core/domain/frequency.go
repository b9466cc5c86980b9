package domain

import "sort"

// TagCount is one row of a session's tag-evolution chart.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CountTags folds an append-ordered tag history into frequency counts,
// descending by count. Ties break by first-seen order so charts are
// reproducible across runs.
func CountTags(records []TagRecord) []TagCount {
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		if _, ok := counts[rec.Tag]; !ok {
			order = append(order, rec.Tag)
		}
		counts[rec.Tag]++
	}

	out := make([]TagCount, 0, len(order))
	for _, tag := range order {
		out = append(out, TagCount{Tag: tag, Count: counts[tag]})
	}

	// out is in first-seen order; a stable sort keeps that order for ties.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

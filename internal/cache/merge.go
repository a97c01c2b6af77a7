package cache

import (
	"sort"
	"time"

	"MarketBrief/internal/model"
)

// Merge adds the incoming bars whose timestamps are not already stored.
// Stored bars are never overwritten. The result is ascending and unique.
func Merge(stored, incoming []model.Bar) []model.Bar {
	seen := make(map[int64]struct{}, len(stored)+len(incoming))
	out := make([]model.Bar, 0, len(stored)+len(incoming))
	for _, src := range [][]model.Bar{stored, incoming} {
		for _, b := range src {
			k := b.Time.UnixNano()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			b.Time = b.Time.UTC()
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Trim drops the bars at or before cutoff.
func Trim(bars []model.Bar, cutoff time.Time) []model.Bar {
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(cutoff) })
	out := make([]model.Bar, len(bars)-i)
	copy(out, bars[i:])
	return out
}

package collector

import (
	"time"

	"MarketBrief/internal/model"
)

// Resample aggregates ascending bars into buckets of width period aligned to
// the zero time, so any period dividing a day is aligned to UTC midnight.
// Each bucket is stamped with its start.
func Resample(bars []model.Bar, period time.Duration) []model.Bar {
	if len(bars) == 0 || period <= 0 {
		return nil
	}
	var out []model.Bar
	var cur model.Bar
	var started bool

	for _, b := range bars {
		key := b.Time.UTC().Truncate(period)

		if !started || !key.Equal(cur.Time) {
			if started {
				out = append(out, cur)
			}
			cur = model.Bar{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if started {
		out = append(out, cur)
	}
	return out
}

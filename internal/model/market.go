package model

import (
	"fmt"
	"sort"
	"time"
)

// Timeframe is a sampling granularity of a price series.
type Timeframe string

const (
	TF90m   Timeframe = "90m"
	TFDaily Timeframe = "1d"
	TFWeek  Timeframe = "1wk"
)

// Timeframes lists the supported timeframes, shortest first.
var Timeframes = []Timeframe{TF90m, TFDaily, TFWeek}

// ParseTimeframe validates a raw timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unsupported timeframe %q", s)
}

// Bar represents a single candlestick bar. Time is always UTC.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds the ordered bars of one (symbol, timeframe) pair.
type Series struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []Bar
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series has no bars.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Last returns the newest bar. ok is false for an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Normalize converts every timestamp to UTC, sorts ascending and drops
// duplicate timestamps keeping the first occurrence.
func Normalize(bars []Bar) []Bar {
	if len(bars) == 0 {
		return bars
	}
	out := make([]Bar, len(bars))
	for i, b := range bars {
		b.Time = b.Time.UTC()
		out[i] = b
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	uniq := out[:1]
	for _, b := range out[1:] {
		if b.Time.Equal(uniq[len(uniq)-1].Time) {
			continue
		}
		uniq = append(uniq, b)
	}
	return uniq
}

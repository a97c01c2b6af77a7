package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func TrueRange(bars []model.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		tr[i] = b.High - b.Low
		if i == 0 {
			continue
		}
		prev := bars[i-1].Close
		tr[i] = math.Max(tr[i], math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
	}
	return tr
}

// ATR computes the Wilder average true range. The first defined cell, at
// index period-1, is the mean of the first period true ranges.
func ATR(bars []model.Bar, period int) model.Column {
	out := make(model.Column, len(bars))
	if period <= 0 || len(bars) < period {
		return out
	}
	tr := TrueRange(bars)

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += tr[i]
	}
	atr /= float64(period)
	out[period-1] = null.FloatFrom(atr)

	for i := period; i < len(bars); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = null.FloatFrom(atr)
	}
	return out
}

package calculator

import (
	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// column wraps raw values as a fully valid column.
func column(values []float64) model.Column {
	col := make(model.Column, len(values))
	for i, v := range values {
		col[i] = null.FloatFrom(v)
	}
	return col
}

// SMA computes the rolling simple moving average of prices. The first
// period-1 cells are undefined.
func SMA(prices []float64, period int) model.Column {
	return rollingMean(column(prices), period)
}

// rollingMean averages the trailing window of col. A cell is defined only
// when every value in its window is defined.
func rollingMean(col model.Column, period int) model.Column {
	out := make(model.Column, len(col))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(col); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !col[j].Valid {
				ok = false
				break
			}
			sum += col[j].Float64
		}
		if ok {
			out[i] = null.FloatFrom(sum / float64(period))
		}
	}
	return out
}

// EMA computes the recursive exponential moving average with alpha 2/(period+1),
// seeded at the first observation. A cell is defined once period observations
// have been folded in.
func EMA(prices []float64, period int) model.Column {
	return emaColumn(column(prices), period)
}

// emaColumn is EMA over a column that may have undefined cells. Undefined
// inputs are skipped and do not count towards the warm-up.
func emaColumn(col model.Column, period int) model.Column {
	out := make(model.Column, len(col))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	var ema float64
	seen := 0
	for i, c := range col {
		if !c.Valid {
			continue
		}
		if seen == 0 {
			ema = c.Float64
		} else {
			ema = alpha*c.Float64 + (1-alpha)*ema
		}
		seen++
		if seen >= period {
			out[i] = null.FloatFrom(ema)
		}
	}
	return out
}

// subtract returns a-b, defined where both are defined.
func subtract(a, b model.Column) model.Column {
	out := make(model.Column, len(a))
	for i := range a {
		if i < len(b) && a[i].Valid && b[i].Valid {
			out[i] = null.FloatFrom(a[i].Float64 - b[i].Float64)
		}
	}
	return out
}

// AwesomeOscillator is SMA(fast) - SMA(slow) of the closes.
func AwesomeOscillator(closes []float64, fast, slow int) model.Column {
	return subtract(SMA(closes, fast), SMA(closes, slow))
}

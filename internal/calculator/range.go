package calculator

import (
	"errors"
	"math"

	"MarketBrief/internal/model"
)

// FibonacciRatios are the retracement ratios reported for every timeframe.
var FibonacciRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// HighLow scans all bars and returns the highest high and the lowest low.
func HighLow(bars []model.Bar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Fibonacci returns the retracement levels low + (high-low)*ratio over the
// full series.
func Fibonacci(bars []model.Bar) (model.FibonacciLevels, error) {
	high, low, err := HighLow(bars)
	if err != nil {
		return nil, err
	}
	diff := high - low
	levels := make(model.FibonacciLevels, len(FibonacciRatios))
	for i, r := range FibonacciRatios {
		levels[i] = model.FibLevel{Ratio: r, Price: low + diff*r}
	}
	return levels, nil
}

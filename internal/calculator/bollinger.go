package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// BollingerBands computes the middle band (SMA of period) and the upper and
// lower bands at deviations population standard deviations.
func BollingerBands(prices []float64, period int, deviations float64) (upper, middle, lower model.Column) {
	upper = make(model.Column, len(prices))
	middle = make(model.Column, len(prices))
	lower = make(model.Column, len(prices))
	if period <= 0 {
		return upper, middle, lower
	}

	for i := period - 1; i < len(prices); i++ {
		subset := prices[i-period+1 : i+1]

		sum := 0.0
		for _, p := range subset {
			sum += p
		}
		sma := sum / float64(period)

		squareSum := 0.0
		for _, p := range subset {
			diff := p - sma
			squareSum += diff * diff
		}
		stdDev := math.Sqrt(squareSum / float64(period))

		middle[i] = null.FloatFrom(sma)
		upper[i] = null.FloatFrom(sma + deviations*stdDev)
		lower[i] = null.FloatFrom(sma - deviations*stdDev)
	}
	return upper, middle, lower
}

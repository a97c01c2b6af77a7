package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// WaveTrend computes the LazyBear wave trend oscillator from the typical
// price (h+l+c)/3. wt1 is EMA(averageLen) of the channel index and wt2 is the
// signalLen simple average of wt1.
func WaveTrend(bars []model.Bar, channelLen, averageLen, signalLen int) (wt1, wt2 model.Column) {
	ap := make([]float64, len(bars))
	for i, b := range bars {
		ap[i] = (b.High + b.Low + b.Close) / 3
	}
	esa := EMA(ap, channelLen)

	dev := make(model.Column, len(bars))
	for i := range ap {
		if esa[i].Valid {
			dev[i] = null.FloatFrom(math.Abs(ap[i] - esa[i].Float64))
		}
	}
	d := emaColumn(dev, channelLen)

	ci := make(model.Column, len(bars))
	for i := range ap {
		// a flat channel has no defined index
		if !esa[i].Valid || !d[i].Valid || d[i].Float64 == 0 {
			continue
		}
		ci[i] = null.FloatFrom((ap[i] - esa[i].Float64) / (0.015 * d[i].Float64))
	}

	wt1 = emaColumn(ci, averageLen)
	wt2 = rollingMean(wt1, signalLen)
	return wt1, wt2
}

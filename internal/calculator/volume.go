package calculator

import (
	"github.com/guregu/null/v6"

	"MarketBrief/internal/model"
)

// OBV computes on-balance volume. It starts at 0 on the first bar; volume is
// added on an up close, subtracted on a down close and ignored when the close
// is unchanged.
func OBV(bars []model.Bar) model.Column {
	out := make(model.Column, len(bars))
	if len(bars) == 0 {
		return out
	}
	obv := 0.0
	out[0] = null.FloatFrom(obv)
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Volume
		}
		out[i] = null.FloatFrom(obv)
	}
	return out
}

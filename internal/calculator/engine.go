package calculator

import "MarketBrief/internal/model"

// Params holds the lookback parameters of every indicator.
type Params struct {
	WTChannelLen int
	WTAverageLen int
	WTSignalLen  int
	AOFast       int
	AOSlow       int
	RSIPeriod    int
	FastMA       int
	SlowMA       int
	BBPeriod     int
	BBStdDev     float64
	ATRPeriod    int
}

// DefaultParams are the parameters the analysis prompts are written against.
var DefaultParams = Params{
	WTChannelLen: 10,
	WTAverageLen: 21,
	WTSignalLen:  4,
	AOFast:       5,
	AOSlow:       34,
	RSIPeriod:    14,
	FastMA:       5,
	SlowMA:       13,
	BBPeriod:     100,
	BBStdDev:     2.0,
	ATRPeriod:    14,
}

// AddIndicators augments a series with every indicator column using
// DefaultParams. It never fails; short series just yield undefined cells.
func AddIndicators(s model.Series) *model.Frame {
	return AddIndicatorsWith(s, DefaultParams)
}

// AddIndicatorsWith is AddIndicators with explicit parameters.
func AddIndicatorsWith(s model.Series, p Params) *model.Frame {
	closes := s.Closes()
	f := &model.Frame{Series: s}

	f.WT1, f.WT2 = WaveTrend(s.Bars, p.WTChannelLen, p.WTAverageLen, p.WTSignalLen)
	f.AO = AwesomeOscillator(closes, p.AOFast, p.AOSlow)
	f.RSI = RSI(closes, p.RSIPeriod)
	f.FastMA = EMA(closes, p.FastMA)
	f.SlowMA = EMA(closes, p.SlowMA)
	f.BBUpper, f.BBMiddle, f.BBLower = BollingerBands(closes, p.BBPeriod, p.BBStdDev)
	f.OBV = OBV(s.Bars)
	f.ATR = ATR(s.Bars, p.ATRPeriod)
	return f
}

// Package compiler turns indicator frames into the analysis document.
package compiler

import (
	"errors"
	"fmt"
	"math"

	"MarketBrief/internal/calculator"
	"MarketBrief/internal/model"
)

// ErrInsufficientData is returned for a frame without bars.
var ErrInsufficientData = errors.New(model.InsufficientData)

// isoLayout matches a naive ISO-8601 timestamp; every bar is UTC.
const isoLayout = "2006-01-02T15:04:05"

// Result is the outcome of one timeframe: a frame, or the error that
// prevented it.
type Result struct {
	Timeframe model.Timeframe
	Frame     *model.Frame
	Err       error
}

// Compile builds the document of symbol from per-timeframe results, in the
// order given. Failed or empty timeframes become markers; it never fails.
func Compile(symbol string, results []Result) *model.Document {
	doc := &model.Document{Symbol: symbol}
	for _, r := range results {
		entry := model.TimeframeEntry{Timeframe: r.Timeframe}
		var err error
		if r.Err != nil {
			err = r.Err
		} else {
			entry.Summary, err = CompileTimeframe(symbol, r.Frame)
		}
		if err != nil {
			entry.Summary = nil
			entry.Missing = &model.Missing{
				Symbol:    symbol,
				Timeframe: r.Timeframe,
				Error:     model.InsufficientData,
				Reason:    err.Error(),
			}
		}
		doc.Timeframes = append(doc.Timeframes, entry)
	}
	return doc
}

// CompileTimeframe summarises one frame.
func CompileTimeframe(symbol string, f *model.Frame) (*model.Summary, error) {
	if f == nil || f.Empty() {
		return nil, fmt.Errorf("%w: no bars", ErrInsufficientData)
	}
	bars := f.Bars
	first, last := bars[0], bars[len(bars)-1]

	pr := model.PriceRange{
		Start: first.Close,
		End:   last.Close,
		Low:   math.Inf(1),
		High:  math.Inf(-1),
	}
	var vs model.VolumeStats
	for _, b := range bars {
		pr.Low = math.Min(pr.Low, b.Low)
		pr.High = math.Max(pr.High, b.High)
		vs.Total += b.Volume
	}
	vs.Average = vs.Total / float64(len(bars))

	fib, err := calculator.Fibonacci(bars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	return &model.Summary{
		Symbol:       symbol,
		Timeframe:    f.Timeframe,
		DataRange:    first.Time.UTC().Format(isoLayout) + " to " + last.Time.UTC().Format(isoLayout),
		TotalCandles: len(bars),
		PriceRange:   pr,
		VolumeStats:  vs,
		IndicatorLatest: model.IndicatorLatest{
			RSI:       f.RSI.Latest(),
			WaveTrend: model.WaveTrend{WT1: f.WT1.Latest(), WT2: f.WT2.Latest()},
			AO:        f.AO.Latest(),
			MovingAverages: model.MovingAverages{
				Fast: f.FastMA.Latest(),
				Slow: f.SlowMA.Latest(),
			},
			BollingerBands: model.BollingerBands{
				Upper:  f.BBUpper.Latest(),
				Middle: f.BBMiddle.Latest(),
				Lower:  f.BBLower.Latest(),
			},
			OBV: f.OBV.Latest(),
			ATR: f.ATR.Latest(),
		},
		FibonacciLevels: fib,
	}, nil
}

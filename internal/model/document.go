package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/guregu/null/v6"
)

// InsufficientData is the marker text for a timeframe that could not be compiled.
const InsufficientData = "insufficient data"

// PriceRange summarises closes and extremes over a series.
type PriceRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// VolumeStats summarises traded volume over a series.
type VolumeStats struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

type WaveTrend struct {
	WT1 null.Float `json:"WT1"`
	WT2 null.Float `json:"WT2"`
}

type MovingAverages struct {
	Fast null.Float `json:"Fast"`
	Slow null.Float `json:"Slow"`
}

type BollingerBands struct {
	Upper  null.Float `json:"Upper"`
	Middle null.Float `json:"Middle"`
	Lower  null.Float `json:"Lower"`
}

// IndicatorLatest holds the newest reading of every indicator column.
// Field names are part of the prompt contract; do not rename.
type IndicatorLatest struct {
	RSI            null.Float     `json:"RSI"`
	WaveTrend      WaveTrend      `json:"Wave Trend"`
	AO             null.Float     `json:"Awesome Oscillator"`
	MovingAverages MovingAverages `json:"Moving Averages"`
	BollingerBands BollingerBands `json:"Bollinger Bands"`
	OBV            null.Float     `json:"On-Balance Volume"`
	ATR            null.Float     `json:"Average True Range"`
}

// FibLevel is one retracement level: Ratio of the high-low range above the low.
type FibLevel struct {
	Ratio float64
	Price float64
}

// FibonacciLevels keeps retracement levels in ascending ratio order.
type FibonacciLevels []FibLevel

// MarshalJSON encodes the levels as an object keyed by ratio, preserving order.
func (f FibonacciLevels) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.FormatFloat(l.Ratio, 'f', -1, 64)))
		buf.WriteByte(':')
		v, err := json.Marshal(l.Price)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Price returns the level price for ratio.
func (f FibonacciLevels) Price(ratio float64) (float64, bool) {
	for _, l := range f {
		if l.Ratio == ratio {
			return l.Price, true
		}
	}
	return 0, false
}

// Summary is the compiled record of one timeframe.
type Summary struct {
	Symbol          string          `json:"symbol"`
	Timeframe       Timeframe       `json:"timeframe"`
	DataRange       string          `json:"data_range"`
	TotalCandles    int             `json:"total_candles"`
	PriceRange      PriceRange      `json:"price_range"`
	VolumeStats     VolumeStats     `json:"volume_stats"`
	IndicatorLatest IndicatorLatest `json:"indicator_latest"`
	FibonacciLevels FibonacciLevels `json:"fibonacci_levels"`
}

// Missing marks a timeframe that produced no usable data.
type Missing struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Error     string    `json:"error"`
	Reason    string    `json:"reason"`
}

// TimeframeEntry is either a compiled Summary or a Missing marker.
type TimeframeEntry struct {
	Timeframe Timeframe
	Summary   *Summary
	Missing   *Missing
}

// PriceLevel is one order book level. It encodes as a [price, size] pair.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

func (p PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Price, p.Quantity})
}

// OrderBook is a top-N snapshot of a derivatives order book.
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Document is the compiled, analysis-ready view of one instrument.
type Document struct {
	Symbol      string
	Timeframes  []TimeframeEntry
	OrderBook   *OrderBook
	FundingRate null.Float
	FearGreed   null.String
	// Unavailable records why an auxiliary fact is absent.
	Unavailable map[string]string
}

// Summary returns the compiled summary for tf.
func (d *Document) Summary(tf Timeframe) (*Summary, bool) {
	for _, e := range d.Timeframes {
		if e.Timeframe == tf && e.Summary != nil {
			return e.Summary, true
		}
	}
	return nil, false
}

// Available lists the timeframes that compiled successfully.
func (d *Document) Available() []Timeframe {
	var out []Timeframe
	for _, e := range d.Timeframes {
		if e.Summary != nil {
			out = append(out, e.Timeframe)
		}
	}
	return out
}

// MissingTimeframes lists the markers of timeframes without data.
func (d *Document) MissingTimeframes() []Missing {
	var out []Missing
	for _, e := range d.Timeframes {
		if e.Missing != nil {
			out = append(out, *e.Missing)
		}
	}
	return out
}

// MarkUnavailable records the reason an auxiliary fact is absent.
func (d *Document) MarkUnavailable(fact, reason string) {
	if d.Unavailable == nil {
		d.Unavailable = make(map[string]string)
	}
	d.Unavailable[fact] = reason
}

// MarshalJSON writes the symbol, then one key per timeframe in order,
// then the auxiliary facts that are present.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "symbol", d.Symbol, true); err != nil {
		return nil, err
	}
	for _, e := range d.Timeframes {
		var v any = e.Summary
		if e.Summary == nil {
			v = e.Missing
		}
		if err := writeField(&buf, string(e.Timeframe), v, false); err != nil {
			return nil, err
		}
	}
	if d.OrderBook != nil {
		if err := writeField(&buf, "order_book", d.OrderBook, false); err != nil {
			return nil, err
		}
	}
	if d.FundingRate.Valid {
		if err := writeField(&buf, "funding_rate", d.FundingRate.Float64, false); err != nil {
			return nil, err
		}
	}
	if d.FearGreed.Valid {
		if err := writeField(&buf, "fear_greed_index", d.FearGreed.String, false); err != nil {
			return nil, err
		}
	}
	if len(d.Unavailable) > 0 {
		if err := writeField(&buf, "unavailable", d.Unavailable, false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, v any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(strconv.Quote(key))
	buf.WriteByte(':')
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"MarketBrief/internal/model"
)

const codecVersion = 1

// Entry is the persisted unit of one (symbol, timeframe): its bars and the
// instant of the last successful refresh.
type Entry struct {
	Symbol        string
	Timeframe     model.Timeframe
	Bars          []model.Bar
	LastRefreshed time.Time
}

type record struct {
	Version       int         `json:"version"`
	Symbol        string      `json:"symbol"`
	Timeframe     string      `json:"timeframe"`
	LastRefreshed string      `json:"last_refreshed"`
	Bars          []recordBar `json:"bars"`
}

type recordBar struct {
	T string  `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// Encode serializes an entry. Times are written as RFC3339Nano in UTC.
func Encode(e Entry) ([]byte, error) {
	rec := record{
		Version:       codecVersion,
		Symbol:        e.Symbol,
		Timeframe:     string(e.Timeframe),
		LastRefreshed: e.LastRefreshed.UTC().Format(time.RFC3339Nano),
		Bars:          make([]recordBar, len(e.Bars)),
	}
	for i, b := range e.Bars {
		rec.Bars[i] = recordBar{
			T: b.Time.UTC().Format(time.RFC3339Nano),
			O: b.Open,
			H: b.High,
			L: b.Low,
			C: b.Close,
			V: b.Volume,
		}
	}
	return json.Marshal(rec)
}

// Decode parses a record written by Encode. Any structural problem, including
// bars that are not strictly ascending, is reported as an error.
func Decode(data []byte) (Entry, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entry{}, fmt.Errorf("decode cache record: %w", err)
	}
	if rec.Version != codecVersion {
		return Entry{}, fmt.Errorf("decode cache record: unsupported version %d", rec.Version)
	}
	tf, err := model.ParseTimeframe(rec.Timeframe)
	if err != nil {
		return Entry{}, fmt.Errorf("decode cache record: %w", err)
	}
	refreshed, err := time.Parse(time.RFC3339Nano, rec.LastRefreshed)
	if err != nil {
		return Entry{}, fmt.Errorf("decode cache record: last_refreshed: %w", err)
	}

	e := Entry{
		Symbol:        rec.Symbol,
		Timeframe:     tf,
		LastRefreshed: refreshed.UTC(),
		Bars:          make([]model.Bar, len(rec.Bars)),
	}
	for i, rb := range rec.Bars {
		t, err := time.Parse(time.RFC3339Nano, rb.T)
		if err != nil {
			return Entry{}, fmt.Errorf("decode cache record: bar %d: %w", i, err)
		}
		t = t.UTC()
		if i > 0 && !t.After(e.Bars[i-1].Time) {
			return Entry{}, fmt.Errorf("decode cache record: bar %d out of order", i)
		}
		e.Bars[i] = model.Bar{Time: t, Open: rb.O, High: rb.H, Low: rb.L, Close: rb.C, Volume: rb.V}
	}
	return e, nil
}

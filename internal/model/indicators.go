package model

import "github.com/guregu/null/v6"

// Column is one indicator column aligned 1:1 with the bars of a Series.
// An invalid cell marks a bar without enough lookback.
type Column []null.Float

// Latest returns the newest cell, invalid when the column is empty.
func (c Column) Latest() null.Float {
	if len(c) == 0 {
		return null.Float{}
	}
	return c[len(c)-1]
}

// Frame is a Series augmented with its indicator columns.
type Frame struct {
	Series

	WT1      Column
	WT2      Column
	AO       Column
	RSI      Column
	FastMA   Column
	SlowMA   Column
	BBUpper  Column
	BBMiddle Column
	BBLower  Column
	OBV      Column
	ATR      Column
}

// Columns returns the indicator columns keyed by name.
func (f *Frame) Columns() map[string]Column {
	return map[string]Column{
		"wt1":      f.WT1,
		"wt2":      f.WT2,
		"ao":       f.AO,
		"rsi":      f.RSI,
		"fastMa":   f.FastMA,
		"slowMa":   f.SlowMA,
		"bbUpper":  f.BBUpper,
		"bbMiddle": f.BBMiddle,
		"bbLower":  f.BBLower,
		"obv":      f.OBV,
		"atr":      f.ATR,
	}
}

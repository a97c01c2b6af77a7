package model

import (
	"encoding/json"
	"time"
)

// Analysis is the outcome of analysing one instrument.
type Analysis struct {
	Symbol    string    `json:"symbol"`
	Analysis  string    `json:"analysis,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// Cached is true when the text was served from the analysis cache.
	Cached bool `json:"-"`
}

// Failed reports whether the analysis carries an error instead of text.
func (a *Analysis) Failed() bool { return a.Error != "" }

// BatchStatus is the overall status of a market batch.
type BatchStatus string

const (
	BatchSuccess BatchStatus = "success"
	BatchError   BatchStatus = "error"
)

// BatchResult is the market-wide brief produced from many instruments.
type BatchResult struct {
	RunID              string                     `json:"run_id"`
	Status             BatchStatus                `json:"status"`
	MarketAnalysis     string                     `json:"market_analysis,omitempty"`
	Error              string                     `json:"error,omitempty"`
	IndividualAnalyses map[string]*Analysis       `json:"individual_analyses"`
	FailedAnalyses     []string                   `json:"failed_analyses"`
	AlphaVantageData   map[string]json.RawMessage `json:"alpha_vantage_data,omitempty"`
	Timestamp          time.Time                  `json:"timestamp"`
}

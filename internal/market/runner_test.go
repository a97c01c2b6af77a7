package market

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"MarketBrief/internal/analysis"
	"MarketBrief/internal/model"
)

type fakeAssets map[string]*model.Analysis

func (f fakeAssets) Analyze(_ context.Context, asset model.Asset) (*model.Analysis, error) {
	a, ok := f[asset.Name]
	if !ok {
		return nil, errors.New("store down")
	}
	return a, nil
}

type fakeAggregate struct {
	err     error
	payload analysis.MarketPayload
	prompt  string
}

func (f *fakeAggregate) Analyze(_ context.Context, payload any, prompt string) (string, error) {
	f.payload = payload.(analysis.MarketPayload)
	f.prompt = prompt
	return "brief", f.err
}

type fakeMarketData struct{}

func (fakeMarketData) MarketData(context.Context) (map[string]json.RawMessage, error) {
	return map[string]json.RawMessage{"news": json.RawMessage(`{"feed":[]}`)}, nil
}

var testAssets = []model.Asset{
	{Name: "VIX", Ticker: "^VIX", Group: model.GroupMacro},
	{Name: "AAPL", Ticker: "AAPL", Group: model.GroupTrade},
	{Name: "BTC/USDT", Ticker: "BTC/USDT", Class: model.ClassCrypto, Group: model.GroupTrade},
	{Name: "SOL/BTC", Ticker: "SOL/BTC", Class: model.ClassCrypto, Group: model.GroupTrade},
}

func TestRun(t *testing.T) {
	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	assets := fakeAssets{
		"VIX":      {Symbol: "VIX", Analysis: "calm", Timestamp: now},
		"AAPL":     {Symbol: "AAPL", Analysis: "up", Timestamp: now, Cached: true},
		"BTC/USDT": {Symbol: "BTC/USDT", Error: "data fetch failed: no data", Timestamp: now},
	}
	agg := &fakeAggregate{}
	r := &Runner{Assets: assets, Analyzer: agg, MarketData: fakeMarketData{}, Workers: 2, Now: func() time.Time { return now }}

	var events []Progress
	res, err := r.Run(context.Background(), testAssets, func(p Progress) { events = append(events, p) })
	if err != nil {
		t.Fatal(err)
	}

	if res.Status != model.BatchSuccess || res.MarketAnalysis != "brief" {
		t.Errorf("status = %s analysis = %q", res.Status, res.MarketAnalysis)
	}
	if res.RunID == "" {
		t.Error("missing run id")
	}
	if len(res.IndividualAnalyses) != 4 {
		t.Errorf("individual analyses = %d", len(res.IndividualAnalyses))
	}
	want := []string{"BTC/USDT", "SOL/BTC"}
	if len(res.FailedAnalyses) != 2 || res.FailedAnalyses[0] != want[0] || res.FailedAnalyses[1] != want[1] {
		t.Errorf("failed = %v", res.FailedAnalyses)
	}
	if _, ok := res.AlphaVantageData["news"]; !ok {
		t.Error("alpha vantage data not attached")
	}

	if agg.prompt != analysis.MarketPrompt {
		t.Error("aggregate used the wrong prompt")
	}
	if len(agg.payload.MacroAssets) != 1 || len(agg.payload.TradeAssets) != 3 {
		t.Errorf("payload groups macro=%d trade=%d", len(agg.payload.MacroAssets), len(agg.payload.TradeAssets))
	}

	if len(events) == 0 {
		t.Fatal("no progress events")
	}
	last := 0
	for _, e := range events {
		if e.Percent < last {
			t.Errorf("progress went backwards: %d after %d", e.Percent, last)
		}
		last = e.Percent
	}
	if events[len(events)-1].Percent != PercentDone {
		t.Errorf("final percent = %d", events[len(events)-1].Percent)
	}
	var sawAssets, sawAux bool
	for _, e := range events {
		if e.Asset != "" && e.Done == len(testAssets) && e.Percent == PercentAssets {
			sawAssets = true
		}
		if e.Percent == PercentAuxiliary {
			sawAux = true
		}
	}
	if !sawAssets || !sawAux {
		t.Errorf("missing stage events: assets=%v aux=%v", sawAssets, sawAux)
	}
}

func TestRun_AggregateFailure(t *testing.T) {
	r := &Runner{
		Assets:   fakeAssets{"VIX": {Symbol: "VIX", Analysis: "calm"}},
		Analyzer: &fakeAggregate{err: errors.New("rate limited")},
	}
	res, err := r.Run(context.Background(), testAssets[:1], nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.BatchError || res.Error == "" {
		t.Errorf("status = %s error = %q", res.Status, res.Error)
	}
	if len(res.FailedAnalyses) != 0 {
		t.Errorf("failed = %v", res.FailedAnalyses)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Assets: fakeAssets{}, Analyzer: &fakeAggregate{}}
	if _, err := r.Run(ctx, testAssets, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"MarketBrief/internal/market"
	"MarketBrief/internal/model"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	block chan struct{}
	err   error
}

func (f *fakeRunner) Run(_ context.Context, assets []model.Asset, progress market.ProgressFunc) (*model.BatchResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	progress(market.Progress{Percent: 100})
	return &model.BatchResult{RunID: "r1", Status: model.BatchSuccess, MarketAnalysis: "brief"}, nil
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ context.Context, asset model.Asset) (*model.Analysis, error) {
	return &model.Analysis{Symbol: asset.Name, Analysis: "ok " + asset.Ticker}, nil
}

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSender) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeRecorder struct {
	mu       sync.Mutex
	batches  int
	analyses int
}

func (f *fakeRecorder) RecordAnalysis(*model.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses++
	return nil
}

func (f *fakeRecorder) RecordBatch(*model.BatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	return nil
}

func (f *fakeRecorder) Close() error { return nil }

var assets = []model.Asset{
	{Name: "VIX", Ticker: "^VIX", Group: model.GroupMacro},
	{Name: "BTC/USDT", Ticker: "BTC/USDT", Class: model.ClassCrypto, Group: model.GroupTrade},
}

func TestRunMarketNow(t *testing.T) {
	sender, rec := &fakeSender{}, &fakeRecorder{}
	s := NewScheduler(context.Background(), &fakeRunner{}, fakeAnalyzer{}, sender, rec, assets)

	if !s.RunMarketNow() {
		t.Fatal("batch did not run")
	}
	if rec.batches != 1 {
		t.Errorf("recorded batches = %d", rec.batches)
	}
	texts := sender.all()
	if len(texts) != 1 || !strings.Contains(texts[0], "brief") {
		t.Errorf("sent = %v", texts)
	}
}

func TestRunMarketNow_Aborted(t *testing.T) {
	sender, rec := &fakeSender{}, &fakeRecorder{}
	s := NewScheduler(context.Background(), &fakeRunner{err: errors.New("cancelled")}, fakeAnalyzer{}, sender, rec, assets)

	s.RunMarketNow()
	if rec.batches != 0 {
		t.Error("aborted batch was recorded")
	}
	if texts := sender.all(); len(texts) != 1 || !strings.Contains(texts[0], "aborted") {
		t.Errorf("sent = %v", texts)
	}
}

func TestMarketBatchIsExclusive(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s := NewScheduler(context.Background(), runner, fakeAnalyzer{}, &fakeSender{}, &fakeRecorder{}, assets)

	if reply := s.HandleCommand("/market"); !strings.Contains(reply, "started") {
		t.Fatalf("reply = %q", reply)
	}
	// Wait until the background batch holds the flag.
	for !s.running.Load() {
	}
	if s.RunMarketNow() {
		t.Error("second batch ran concurrently")
	}
	if reply := s.HandleCommand("/market"); !strings.Contains(reply, "already running") {
		t.Errorf("reply = %q", reply)
	}
	close(runner.block)
	s.Stop()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.calls != 1 {
		t.Errorf("runner calls = %d", runner.calls)
	}
}

func TestHandleCommand(t *testing.T) {
	sender, rec := &fakeSender{}, &fakeRecorder{}
	s := NewScheduler(context.Background(), &fakeRunner{}, fakeAnalyzer{}, sender, rec, assets)

	tests := []struct {
		command string
		want    string
	}{
		{"/assets", "• VIX (^VIX)"},
		{"/analyze", "Usage"},
		{"/analyze btc/usdt", "Analysing BTC/USDT (BTC/USDT)"},
		{"/help", "Available commands"},
		{"", "Available commands"},
	}
	for _, tt := range tests {
		if got := s.HandleCommand(tt.command); !strings.Contains(got, tt.want) {
			t.Errorf("HandleCommand(%q) = %q, want substring %q", tt.command, got, tt.want)
		}
	}

	s.Stop()
	texts := sender.all()
	if len(texts) != 1 || !strings.Contains(texts[0], "ok BTC/USDT") {
		t.Errorf("sent = %v", texts)
	}
	if rec.analyses != 1 {
		t.Errorf("recorded analyses = %d", rec.analyses)
	}
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRunner{}, fakeAnalyzer{}, nil, &fakeRecorder{}, assets)
	if err := s.RegisterAll("0 0 8 * * *"); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterAll("not a cron"); err == nil {
		t.Error("invalid cron accepted")
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("entries = %d", n)
	}
}

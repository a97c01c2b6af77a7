package collector

import (
	"context"
	"sync"
	"time"

	"MarketBrief/internal/model"
)

// FetchCall records one call made to a MockFetcher.
type FetchCall struct {
	Symbol    string
	Timeframe model.Timeframe
	Start     time.Time
	End       time.Time
}

// MockFetcher returns controllable fixed data for development and testing.
// With Data set it serves those bars clipped to the window; otherwise it
// generates a gentle trend around Price.
type MockFetcher struct {
	Price float64
	Data  map[model.Timeframe][]model.Bar
	// Err, when set, is returned by every call.
	Err error
	// Now is the clock used for zero end times.
	Now func() time.Time

	mu    sync.Mutex
	calls []FetchCall
}

func (m *MockFetcher) Name() string { return "mock" }

// Fetch implements Fetcher.
func (m *MockFetcher) Fetch(_ context.Context, symbol string, tf model.Timeframe, start, end time.Time) (model.Series, error) {
	if end.IsZero() && m.Now != nil {
		end = m.Now()
	}
	m.mu.Lock()
	m.calls = append(m.calls, FetchCall{Symbol: symbol, Timeframe: tf, Start: start, End: end})
	m.mu.Unlock()

	if m.Err != nil {
		return emptySeries(symbol, tf), m.Err
	}
	start, end, err := Window(tf, start, end)
	if err != nil {
		return emptySeries(symbol, tf), err
	}

	var bars []model.Bar
	if m.Data != nil {
		src := m.Data[tf]
		cp := make([]model.Bar, len(src))
		copy(cp, src)
		bars = clip(model.Normalize(cp), start, end)
	} else {
		bars = generateMockBars(m.Price, start, end, tf.Step())
	}
	if len(bars) == 0 {
		return emptySeries(symbol, tf), NoData("mock %s %s: no bars", symbol, tf)
	}
	return model.Series{Symbol: symbol, Timeframe: tf, Bars: bars}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockFetcher) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FetchCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func generateMockBars(basePrice float64, start, end time.Time, step time.Duration) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	first := start.Truncate(step)
	if first.Before(start) {
		first = first.Add(step)
	}
	count := int(end.Sub(first)/step) + 1
	if count <= 0 {
		return nil
	}
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   first.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

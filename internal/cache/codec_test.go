package cache

import (
	"math/rand"
	"testing"
	"time"

	"MarketBrief/internal/model"
)

func TestKey(t *testing.T) {
	tests := []struct {
		symbol string
		tf     model.Timeframe
		want   string
	}{
		{"BTC/USDT", model.TFDaily, "BTCUSDT__1d"},
		{"^VIX", model.TF90m, "VIX__90m"},
		{"GC=F", model.TFWeek, "GCF__1wk"},
		{"BRK-B", model.TFDaily, "BRKB__1d"},
		{" SOL / BTC ", model.TFDaily, "SOLBTC__1d"},
		{"aapl", model.TFDaily, "aapl__1d"},
	}
	for _, tc := range tests {
		if got := Key(tc.symbol, tc.tf); got != tc.want {
			t.Errorf("Key(%q, %s) = %q, want %q", tc.symbol, tc.tf, got, tc.want)
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	in := Entry{
		Symbol:        "ETH/USDT",
		Timeframe:     model.TF90m,
		LastRefreshed: time.Date(2024, 6, 1, 13, 37, 0, 123456789, time.UTC),
		Bars: []model.Bar{
			{Time: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), Open: 3801.15, High: 3822.4, Low: 3790.01, Close: 3810.3333333333335, Volume: 1234.5678},
			{Time: time.Date(2024, 5, 31, 1, 30, 0, 0, time.UTC), Open: 0.1 + 0.2, High: 1e-9, Low: 1e-12, Close: 42, Volume: 0},
		},
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Symbol != in.Symbol || out.Timeframe != in.Timeframe || !out.LastRefreshed.Equal(in.LastRefreshed) {
		t.Errorf("header mismatch: %+v", out)
	}
	if len(out.Bars) != len(in.Bars) {
		t.Fatalf("got %d bars, want %d", len(out.Bars), len(in.Bars))
	}
	for i := range in.Bars {
		a, b := in.Bars[i], out.Bars[i]
		if !a.Time.Equal(b.Time) || a.Open != b.Open || a.High != b.High || a.Low != b.Low || a.Close != b.Close || a.Volume != b.Volume {
			t.Errorf("bar %d: got %+v, want %+v", i, b, a)
		}
	}
}

func TestCodec_NonUTCInputIsStoredAsUTC(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	in := Entry{Symbol: "SPY", Timeframe: model.TFDaily, LastRefreshed: time.Date(2024, 1, 2, 9, 30, 0, 0, ny),
		Bars: []model.Bar{{Time: time.Date(2024, 1, 2, 9, 30, 0, 0, ny), Close: 1}}}
	data, _ := Encode(in)
	out, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bars[0].Time.Location() != time.UTC || out.Bars[0].Time.Hour() != 14 {
		t.Errorf("expected 14:30 UTC, got %s", out.Bars[0].Time)
	}
}

func TestCodec_RejectsCorruptRecords(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"version":1,`,
		"wrong version": `{"version":2,"symbol":"A","timeframe":"1d","last_refreshed":"2024-01-01T00:00:00Z","bars":[]}`,
		"bad timeframe": `{"version":1,"symbol":"A","timeframe":"4h","last_refreshed":"2024-01-01T00:00:00Z","bars":[]}`,
		"bad time":      `{"version":1,"symbol":"A","timeframe":"1d","last_refreshed":"yesterday","bars":[]}`,
		"out of order": `{"version":1,"symbol":"A","timeframe":"1d","last_refreshed":"2024-01-03T00:00:00Z","bars":[
			{"t":"2024-01-02T00:00:00Z","o":1,"h":1,"l":1,"c":1,"v":1},
			{"t":"2024-01-01T00:00:00Z","o":1,"h":1,"l":1,"c":1,"v":1}]}`,
	}
	for name, raw := range tests {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func randomBars(r *rand.Rand, n int) []model.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{Time: base.Add(time.Duration(r.Intn(60)) * day), Close: float64(r.Intn(1000))}
	}
	return bars
}

func TestMerge_UniqueAscendingStoredWins(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		stored := model.Normalize(randomBars(r, 30))
		for i := range stored {
			stored[i].Volume = 1 // marks stored bars
		}
		incoming := randomBars(r, 30)

		out := Merge(stored, incoming)

		want := map[int64]bool{}
		for _, b := range stored {
			want[b.Time.UnixNano()] = true
		}
		for _, b := range incoming {
			want[b.Time.UnixNano()] = true
		}
		if len(out) != len(want) {
			t.Fatalf("round %d: got %d bars, want %d unique timestamps", round, len(out), len(want))
		}
		storedAt := map[int64]bool{}
		for _, b := range stored {
			storedAt[b.Time.UnixNano()] = true
		}
		for i, b := range out {
			if i > 0 && !b.Time.After(out[i-1].Time) {
				t.Fatalf("round %d: not strictly ascending at %d", round, i)
			}
			if storedAt[b.Time.UnixNano()] && b.Volume != 1 {
				t.Fatalf("round %d: incoming bar replaced stored bar at %s", round, b.Time)
			}
		}
	}
}

func TestTrim_Idempotent(t *testing.T) {
	bars := dailyBars(testNow, 400, 1)
	cutoff := testNow.Add(-365 * day)

	once := Trim(bars, cutoff)
	twice := Trim(once, cutoff)
	if len(once) != 365 || len(twice) != len(once) {
		t.Fatalf("trim lengths %d then %d", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Time.Equal(twice[i].Time) {
			t.Fatalf("trim not idempotent at %d", i)
		}
	}
	if !once[0].Time.After(cutoff) {
		t.Error("bar at the cutoff should be dropped")
	}
}

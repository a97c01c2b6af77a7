package calculator

import (
	"math"
	"testing"
	"time"

	"MarketBrief/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func syntheticBars(n int) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		base := 100 + 10*math.Sin(float64(i)/7) + float64(i%5)
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   base - 0.5,
			High:   base + 2,
			Low:    base - 2,
			Close:  base + 0.3*math.Cos(float64(i)),
			Volume: 1000 + float64(i*10),
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if got[0].Valid || got[1].Valid {
		t.Fatal("expected first two cells undefined")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !got[i+2].Valid || !approx(got[i+2].Float64, w) {
			t.Errorf("sma[%d] = %v, want %.2f", i+2, got[i+2], w)
		}
	}
}

func TestEMA_SeededAtFirstValue(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 2)
	if got[0].Valid {
		t.Error("expected first cell undefined")
	}
	if !approx(got[1].Float64, 5.0/3) {
		t.Errorf("ema[1] = %.6f, want %.6f", got[1].Float64, 5.0/3)
	}
	if !approx(got[2].Float64, 23.0/9) {
		t.Errorf("ema[2] = %.6f, want %.6f", got[2].Float64, 23.0/9)
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"all gains", []float64{1, 2, 3, 4, 5, 6}, 100},
		{"all losses", []float64{6, 5, 4, 3, 2, 1}, 0},
		{"balanced", []float64{10, 11, 10, 11, 10}, 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RSI(tc.closes, 4)
			for i := 0; i < 4; i++ {
				if got[i].Valid {
					t.Errorf("rsi[%d] should be undefined", i)
				}
			}
			if !got[4].Valid || !approx(got[4].Float64, tc.want) {
				t.Errorf("rsi[4] = %v, want %.1f", got[4], tc.want)
			}
		})
	}
}

func TestRSI_TooShort(t *testing.T) {
	for i, c := range RSI([]float64{1, 2, 3}, 14) {
		if c.Valid {
			t.Errorf("rsi[%d] should be undefined", i)
		}
	}
}

func TestOBV(t *testing.T) {
	bars := []model.Bar{
		{Close: 10, Volume: 100},
		{Close: 11, Volume: 200},
		{Close: 11, Volume: 300},
		{Close: 9, Volume: 400},
	}
	want := []float64{0, 200, 200, -200}
	got := OBV(bars)
	for i, w := range want {
		if !got[i].Valid || got[i].Float64 != w {
			t.Errorf("obv[%d] = %v, want %.0f", i, got[i], w)
		}
	}
}

func TestATR_ConstantRange(t *testing.T) {
	bars := make([]model.Bar, 20)
	for i := range bars {
		bars[i] = model.Bar{High: 102, Low: 100, Close: 101}
	}
	got := ATR(bars, 14)
	if got[12].Valid {
		t.Error("atr[12] should be undefined")
	}
	for i := 13; i < len(got); i++ {
		if !got[i].Valid || !approx(got[i].Float64, 2) {
			t.Errorf("atr[%d] = %v, want 2", i, got[i])
		}
	}
}

func TestBollingerBands_FlatSeries(t *testing.T) {
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 50
	}
	upper, middle, lower := BollingerBands(prices, 5, 2)
	if upper[3].Valid {
		t.Error("upper[3] should be undefined")
	}
	for i := 4; i < len(prices); i++ {
		if upper[i].Float64 != 50 || middle[i].Float64 != 50 || lower[i].Float64 != 50 {
			t.Errorf("bands[%d] = %v/%v/%v, want 50", i, upper[i], middle[i], lower[i])
		}
	}
}

func TestBollingerBands_PopulationStdDev(t *testing.T) {
	upper, middle, lower := BollingerBands([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
	// mean 5, population sigma 2
	if !approx(middle[7].Float64, 5) || !approx(upper[7].Float64, 9) || !approx(lower[7].Float64, 1) {
		t.Errorf("got %v/%v/%v, want 9/5/1", upper[7], middle[7], lower[7])
	}
}

func TestWaveTrend_FlatChannelUndefined(t *testing.T) {
	bars := make([]model.Bar, 60)
	for i := range bars {
		bars[i] = model.Bar{High: 10, Low: 10, Close: 10}
	}
	wt1, wt2 := WaveTrend(bars, 10, 21, 4)
	if wt1.Latest().Valid || wt2.Latest().Valid {
		t.Error("flat series should give undefined wave trend")
	}
}

func TestWaveTrend_Warmup(t *testing.T) {
	wt1, wt2 := WaveTrend(syntheticBars(60), 10, 21, 4)
	// esa defined from 9, d from 18, wt1 from 38, wt2 from 41
	if wt1[37].Valid || !wt1[38].Valid {
		t.Errorf("wt1 warm-up boundary wrong: [37]=%v [38]=%v", wt1[37], wt1[38])
	}
	if wt2[40].Valid || !wt2[41].Valid {
		t.Errorf("wt2 warm-up boundary wrong: [40]=%v [41]=%v", wt2[40], wt2[41])
	}
}

func TestAddIndicators_ShortSeries(t *testing.T) {
	s := model.Series{Symbol: "AAPL", Timeframe: model.TFDaily, Bars: syntheticBars(3)}
	f := AddIndicators(s)
	for name, col := range f.Columns() {
		if len(col) != 3 {
			t.Errorf("%s has %d cells, want 3", name, len(col))
		}
	}
	if f.BBMiddle.Latest().Valid || f.RSI.Latest().Valid {
		t.Error("long lookback indicators should be undefined on 3 bars")
	}
	if !f.OBV.Latest().Valid {
		t.Error("obv should be defined from the first bar")
	}
}

func TestAddIndicators_NoFutureLeakage(t *testing.T) {
	bars := syntheticBars(300)
	full := AddIndicators(model.Series{Bars: bars})
	prefix := AddIndicators(model.Series{Bars: bars[:200]})

	fullCols := full.Columns()
	for name, col := range prefix.Columns() {
		for i, c := range col {
			f := fullCols[name][i]
			if c.Valid != f.Valid || (c.Valid && !approx(c.Float64, f.Float64)) {
				t.Fatalf("%s[%d] changed when later bars were added: %v vs %v", name, i, c, f)
			}
		}
	}
}

func TestFibonacci(t *testing.T) {
	bars := []model.Bar{
		{High: 100, Low: 95},
		{High: 110, Low: 98},
		{High: 105, Low: 90},
	}
	levels, err := Fibonacci(bars)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != len(FibonacciRatios) {
		t.Fatalf("got %d levels, want %d", len(levels), len(FibonacciRatios))
	}
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0, 90},
		{0.5, 100},
		{0.618, 102.36},
		{1, 110},
	}
	for _, tc := range tests {
		got, ok := levels.Price(tc.ratio)
		if !ok || !approx(got, tc.want) {
			t.Errorf("level %.3f = %.4f, want %.4f", tc.ratio, got, tc.want)
		}
	}
}

func TestFibonacci_Empty(t *testing.T) {
	if _, err := Fibonacci(nil); err == nil {
		t.Error("expected error for empty bars")
	}
}

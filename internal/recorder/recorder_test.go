package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"MarketBrief/internal/model"
)

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	if err := r.RecordAnalysis(&model.Analysis{Symbol: "AAPL", Analysis: "up", Timestamp: now}); err != nil {
		t.Fatal(err)
	}

	batch := &model.BatchResult{
		RunID:          "run-1",
		Status:         model.BatchSuccess,
		MarketAnalysis: "brief",
		IndividualAnalyses: map[string]*model.Analysis{
			"VIX":      {Symbol: "VIX", Analysis: "calm", Timestamp: now, Cached: true},
			"BTC/USDT": {Symbol: "BTC/USDT", Error: "no data", Timestamp: now},
		},
		FailedAnalyses: []string{"BTC/USDT"},
		Timestamp:      now,
	}
	if err := r.RecordBatch(batch); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM analyses WHERE run_id = ?`, "run-1").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("batch analyses = %d, want 2", n)
	}

	var status, failed string
	if err := r.db.QueryRow(`SELECT status, failed FROM batches WHERE run_id = ?`, "run-1").Scan(&status, &failed); err != nil {
		t.Fatal(err)
	}
	if status != "success" || failed != "BTC/USDT" {
		t.Errorf("batch row = %s %q", status, failed)
	}

	// run_id is unique; the whole second batch is rolled back.
	if err := r.RecordBatch(batch); err == nil {
		t.Error("duplicate run id accepted")
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("analyses after rollback = %d, want 3", n)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordBatch(&model.BatchResult{}); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}

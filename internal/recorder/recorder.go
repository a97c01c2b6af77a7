package recorder

import "MarketBrief/internal/model"

// Recorder persists the history of analyses and market batches.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) error
	RecordBatch(b *model.BatchResult) error
	Close() error
}

package recorder

import "PriceCheck/internal/model"

// Recorder persists fetch outcomes for later inspection.
type Recorder interface {
	RecordReading(runID string, r *model.PriceReading) error
	RecordFailure(runID string, symbol model.Symbol, kind model.ErrorKind, message string) error
	// RecentReadings returns up to limit readings, newest first.
	RecentReadings(limit int) ([]model.HistoryEntry, error)
	// RecentFailures returns up to limit failures, newest first.
	RecentFailures(limit int) ([]model.FailureEntry, error)
	Close() error
}

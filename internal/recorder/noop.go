package recorder

import "PriceCheck/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordReading(_ string, _ *model.PriceReading) error { return nil }
func (n *NoopRecorder) RecordFailure(_ string, _ model.Symbol, _ model.ErrorKind, _ string) error {
	return nil
}
func (n *NoopRecorder) RecentReadings(_ int) ([]model.HistoryEntry, error) { return nil, nil }
func (n *NoopRecorder) RecentFailures(_ int) ([]model.FailureEntry, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                       { return nil }

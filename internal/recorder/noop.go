package recorder

import "time"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuery(_ *QueryRecord) error { return nil }
func (n *NoopRecorder) Prune(_ time.Time) (int64, error) { return 0, nil }
func (n *NoopRecorder) Close() error                     { return nil }

func (n *NoopRecorder) Stats(_ time.Time) (*Stats, error) {
	return &Stats{ByOutcome: map[string]int{}}, nil
}

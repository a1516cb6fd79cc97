package core

// Metrics records operational counters for the engine. Implementations must
// be safe for concurrent use; a no-op implementation backs tests.
type Metrics interface {
	// ScansDispatched counts queue entries created by a dispatch cycle
	ScansDispatched(n int)
	// ScanCompleted counts one successfully finished scan
	ScanCompleted()
	// ScanFailed counts one failed scan
	ScanFailed()
	// SweeperRepairs counts items repaired by a sweeper pass
	SweeperRepairs(n int)
	// QueueDepth records the current number of pending queue entries
	QueueDepth(n int)
}

// NoopMetrics discards all recordings
type NoopMetrics struct{}

func (NoopMetrics) ScansDispatched(int) {}
func (NoopMetrics) ScanCompleted()      {}
func (NoopMetrics) ScanFailed()         {}
func (NoopMetrics) SweeperRepairs(int)  {}
func (NoopMetrics) QueueDepth(int)      {}

package purge

// Metrics receives engine observations. Implementations must be safe for
// concurrent use. A nil Metrics in Config disables collection.
type Metrics interface {
	// TriggerObserved records a Trigger call and whether it woke the worker.
	TriggerObserved(accepted bool)

	// StateChanged records the new engine state.
	StateChanged(s State)

	// EvictionObserved records the outcome of one EvictionTarget call.
	EvictionObserved(ok bool)

	// FreeSpaceObserved records a probe reading taken during a run.
	FreeSpaceObserved(bytes uint64)

	// RunCompleted records a finished run.
	RunCompleted(r Report)
}

type noopMetrics struct{}

func (noopMetrics) TriggerObserved(bool) {}

func (noopMetrics) StateChanged(State) {}

func (noopMetrics) EvictionObserved(bool) {}

func (noopMetrics) FreeSpaceObserved(uint64) {}

func (noopMetrics) RunCompleted(Report) {}

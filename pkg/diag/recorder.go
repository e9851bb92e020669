package diag

// Recorder is the interface applications implement to receive
// diagnostic events. Pass nil or NopRecorder to disable diagnostics.
type Recorder interface {
	// Record captures one event. Implementations must be thread-safe.
	// Events should be processed quickly or queued; blocking slows the
	// emitting operation.
	Record(event Event)
}

// NopRecorder discards all events. Safe for concurrent use and usable
// as a zero value.
type NopRecorder struct{}

// Record discards the event.
func (NopRecorder) Record(Event) {}

// Compile-time interface satisfaction check.
var _ Recorder = NopRecorder{}

// OrNop returns r, or a NopRecorder when r is nil. Callers use it so a
// nil Recorder never needs checking at emission sites.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return NopRecorder{}
	}
	return r
}

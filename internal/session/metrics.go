package session

import "time"

// Recorder receives session events for metrics.
type Recorder interface {
	// ObserveGeneration records one generator call; outcome is "ok",
	// "malformed", "duplicate", "unavailable" or "error".
	ObserveGeneration(outcome string, d time.Duration)
	// ObserveAdvance records which tier produced a word, or "no_word".
	ObserveAdvance(source string)
	ObserveAnswer(correct bool)
}

type noopRecorder struct{}

func (noopRecorder) ObserveGeneration(string, time.Duration) {}
func (noopRecorder) ObserveAdvance(string)                   {}
func (noopRecorder) ObserveAnswer(bool)                      {}

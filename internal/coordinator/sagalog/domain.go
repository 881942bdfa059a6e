// Package sagalog is the append-only audit trail of order placements.
// Every transition a placement goes through is one Entry, tagged with the
// OpenTelemetry trace that produced it.
package sagalog

import "time"

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Terminal reports whether no further entries are expected for the saga.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Entry struct {
	// SagaID identifies one placement attempt.
	SagaID string
	Status Status
	// CurrentStep is the step that just ran or failed. Empty on STARTED and
	// COMPLETED.
	CurrentStep string
	// Payload is the JSON input of the placement, only set on STARTED.
	Payload string
	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string
	TraceID       string
	SpanID        string
	UpdatedAt     time.Time
}

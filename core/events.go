package core

import "time"

// EventType categorizes run events
type EventType string

const (
	EventTypeUnitStatus EventType = "unit_status"
	EventTypeProgress   EventType = "progress"
	EventTypeDecision   EventType = "decision"
	EventTypeError      EventType = "error"
	EventTypeDone       EventType = "done"
)

// Event represents any run event
type Event interface {
	EventType() EventType
}

// UnitStatusEvent reports how one unit's barrier resolved
type UnitStatusEvent struct {
	UnitID        string
	SequenceIndex int
	Status        BarrierStatus
	IncludedCount int
	Latency       time.Duration
	Quality       float64
}

func (e UnitStatusEvent) EventType() EventType {
	return EventTypeUnitStatus
}

// ProgressEvent reports overall collection progress
type ProgressEvent struct {
	Collected  int
	Total      int
	Percentage float64
}

func (e ProgressEvent) EventType() EventType {
	return EventTypeProgress
}

// DecisionEvent carries a decision freshly accepted by the collector
type DecisionEvent struct {
	Decision Decision
}

func (e DecisionEvent) EventType() EventType {
	return EventTypeDecision
}

// ErrorEvent represents an error
type ErrorEvent struct {
	Error     error
	Retryable bool
}

func (e ErrorEvent) EventType() EventType {
	return EventTypeError
}

// RunDoneEvent signals run completion with the aggregated output
type RunDoneEvent struct {
	Output AggregatedOutput
}

func (e RunDoneEvent) EventType() EventType {
	return EventTypeDone
}

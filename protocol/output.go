package protocol

// OutputMessageType defines server-to-client message types
type OutputMessageType string

const (
	// Per-unit lifecycle
	OutputUnitStatus   OutputMessageType = "unit.status"   // Barrier resolution for one unit
	OutputUnitDecision OutputMessageType = "unit.decision" // Decision collected for one unit

	// Run lifecycle
	OutputRunProgress OutputMessageType = "run.progress" // Collection progress snapshot
	OutputRunEnd      OutputMessageType = "run.end"      // Run complete with aggregate summary

	// Errors
	OutputError OutputMessageType = "error"
)

// OutputMessage represents a message to client
type OutputMessage struct {
	Type      OutputMessageType `json:"type"`
	ID        string            `json:"id"`    // Server-generated message ID
	RunID     string            `json:"runId"` // Run identifier
	Payload   any               `json:"payload"`
	Timestamp int64             `json:"timestamp"`
}

// UnitStatusPayload for unit.status
type UnitStatusPayload struct {
	UnitID        string  `json:"unitId"`
	SequenceIndex int     `json:"sequenceIndex"`
	Status        string  `json:"status"` // complete | soft_degraded | hard_degraded | failed
	IncludedCount int     `json:"includedCount"`
	LatencyMs     int64   `json:"latencyMs"`
	Quality       float64 `json:"quality"`
}

// UnitDecisionPayload for unit.decision
type UnitDecisionPayload struct {
	UnitID        string             `json:"unitId"`
	SequenceIndex int                `json:"sequenceIndex"`
	SelectedKind  string             `json:"selectedKind,omitempty"`
	Quality       float64            `json:"quality,omitempty"`
	Reasoning     string             `json:"reasoning,omitempty"`
	PerKindScore  map[string]float64 `json:"perKindScore,omitempty"`
	Skipped       bool               `json:"skipped"`
}

// RunProgressPayload for run.progress
type RunProgressPayload struct {
	Collected  int     `json:"collected"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// RunEndPayload for run.end
type RunEndPayload struct {
	Collected        int            `json:"collected"`
	Total            int            `json:"total"`
	KindDistribution map[string]int `json:"kindDistribution"`
	MeanQuality      float64        `json:"meanQuality"`
	ElapsedMs        int64          `json:"elapsedMs"`
}

// ErrorPayload for error
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

package protocol

import (
	"time"

	"github.com/creastat/quorum/core"
	"github.com/google/uuid"
)

// EventToMessage converts a run event to an output message
func EventToMessage(event core.Event, runID string) *OutputMessage {
	msg := &OutputMessage{
		ID:        generateMessageID(),
		RunID:     runID,
		Timestamp: time.Now().UnixMilli(),
	}

	switch e := event.(type) {
	case core.UnitStatusEvent:
		msg.Type = OutputUnitStatus
		msg.Payload = UnitStatusPayload{
			UnitID:        e.UnitID,
			SequenceIndex: e.SequenceIndex,
			Status:        string(e.Status),
			IncludedCount: e.IncludedCount,
			LatencyMs:     e.Latency.Milliseconds(),
			Quality:       e.Quality,
		}

	case core.DecisionEvent:
		msg.Type = OutputUnitDecision
		payload := UnitDecisionPayload{
			UnitID:        e.Decision.UnitID,
			SequenceIndex: e.Decision.SequenceIndex,
			Reasoning:     e.Decision.Reasoning,
			Skipped:       e.Decision.Skipped,
		}
		if e.Decision.Selected != nil {
			payload.SelectedKind = string(e.Decision.Selected.Kind)
			payload.Quality = e.Decision.Selected.Quality
		}
		if len(e.Decision.PerKindScore) > 0 {
			payload.PerKindScore = make(map[string]float64, len(e.Decision.PerKindScore))
			for kind, score := range e.Decision.PerKindScore {
				payload.PerKindScore[string(kind)] = score
			}
		}
		msg.Payload = payload

	case core.ProgressEvent:
		msg.Type = OutputRunProgress
		msg.Payload = RunProgressPayload{
			Collected:  e.Collected,
			Total:      e.Total,
			Percentage: e.Percentage,
		}

	case core.RunDoneEvent:
		msg.Type = OutputRunEnd
		distribution := make(map[string]int, len(e.Output.KindDistribution))
		for kind, count := range e.Output.KindDistribution {
			distribution[string(kind)] = count
		}
		msg.Payload = RunEndPayload{
			Collected:        e.Output.Collected,
			Total:            e.Output.Total,
			KindDistribution: distribution,
			MeanQuality:      e.Output.MeanQuality,
			ElapsedMs:        e.Output.Elapsed.Milliseconds(),
		}

	case core.ErrorEvent:
		msg.Type = OutputError
		errMsg := ""
		if e.Error != nil {
			errMsg = e.Error.Error()
		}
		msg.Payload = ErrorPayload{
			Code:      "RUN_ERROR",
			Message:   errMsg,
			Retryable: e.Retryable,
		}

	default:
		// Unknown event type, skip
		return nil
	}

	return msg
}

// generateMessageID generates a unique message ID
func generateMessageID() string {
	return "msg-" + uuid.NewString()
}

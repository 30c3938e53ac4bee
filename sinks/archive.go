package sinks

import (
	"context"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

// DecisionSaver is a function that persists a collected decision
type DecisionSaver func(ctx context.Context, decision core.Decision) error

// ArchiveSinkConfig holds configuration for ArchiveSink
type ArchiveSinkConfig struct {
	Saver  DecisionSaver
	Logger telemetry.Logger
}

// ArchiveSink intercepts decision events and hands them to a saver
type ArchiveSink struct {
	config ArchiveSinkConfig
}

// NewArchiveSink creates a new ArchiveSink
func NewArchiveSink(config ArchiveSinkConfig) *ArchiveSink {
	return &ArchiveSink{
		config: config,
	}
}

// Name returns the sink name
func (s *ArchiveSink) Name() string {
	return "archive"
}

// Process reads run events and saves each non-skipped decision. Save errors
// are logged, not propagated; archiving never stops a run.
func (s *ArchiveSink) Process(ctx context.Context, input <-chan core.Event) error {
	logger := s.config.Logger.WithModule(s.Name())

	logger.Debug("ArchiveSink started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-input:
			if !ok {
				return nil
			}

			decisionEvent, ok := event.(core.DecisionEvent)
			if !ok || decisionEvent.Decision.Skipped {
				continue
			}

			logger.Debug("Saving decision",
				telemetry.String("unit_id", decisionEvent.Decision.UnitID),
				telemetry.Int("sequence_index", decisionEvent.Decision.SequenceIndex))

			if err := s.config.Saver(ctx, decisionEvent.Decision); err != nil {
				logger.Error("Failed to save decision",
					telemetry.String("unit_id", decisionEvent.Decision.UnitID),
					telemetry.Err(err))
			}
		}
	}
}

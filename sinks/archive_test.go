package sinks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

func TestArchiveSinkSavesDecisions(t *testing.T) {
	saved := make(chan core.Decision, 10)
	sink := NewArchiveSink(ArchiveSinkConfig{
		Saver: func(ctx context.Context, d core.Decision) error {
			saved <- d
			return nil
		},
		Logger: telemetry.New(telemetry.Config{Level: "error"}),
	})

	input := make(chan core.Event, 10)
	input <- core.ProgressEvent{Collected: 1, Total: 2}
	input <- core.DecisionEvent{Decision: core.Decision{UnitID: "unit-1", SequenceIndex: 0}}
	input <- core.DecisionEvent{Decision: core.SkippedDecision(core.NewUnit(1, nil))}
	close(input)

	if err := sink.Process(context.Background(), input); err != nil {
		t.Fatalf("sink failed: %v", err)
	}

	select {
	case d := <-saved:
		if d.UnitID != "unit-1" {
			t.Errorf("expected unit-1, got %s", d.UnitID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a saved decision")
	}

	// Skipped decisions and non-decision events are not saved
	if len(saved) != 0 {
		t.Errorf("expected exactly one save, %d extra", len(saved))
	}
}

func TestArchiveSinkToleratesSaverErrors(t *testing.T) {
	calls := 0
	sink := NewArchiveSink(ArchiveSinkConfig{
		Saver: func(ctx context.Context, d core.Decision) error {
			calls++
			return errors.New("disk full")
		},
		Logger: telemetry.New(telemetry.Config{Level: "error"}),
	})

	input := make(chan core.Event, 2)
	input <- core.DecisionEvent{Decision: core.Decision{UnitID: "a"}}
	input <- core.DecisionEvent{Decision: core.Decision{UnitID: "b"}}
	close(input)

	if err := sink.Process(context.Background(), input); err != nil {
		t.Fatalf("save errors must not stop the sink: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 save attempts, got %d", calls)
	}
}

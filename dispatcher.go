package quorum

import (
	"context"
	"sync"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

// Dispatcher drives a run: for each unit of work it creates a fresh barrier,
// fans out the full producer set, blocks on resolution, hands the included
// results to the judge, and forwards the decision to the collector. Units are
// processed with bounded fan-out across units; the fan-out within a unit is
// always the full expected producer set.
//
// Construct through NewBuilder, which validates the configuration fail-fast.
type Dispatcher struct {
	config    core.DispatcherConfig
	producers map[core.ProducerKind]ProducerFunc
	judge     JudgeFunc
	retry     *RetryExecutor
	logger    telemetry.Logger
	events    chan<- core.Event
}

// Run processes the unit sequence and returns the aggregated output. Per-unit
// failure is non-fatal: a failed barrier skips that unit in the ordered output
// but does not abort the run. Cancelling the context aborts all open barriers,
// releases every blocked waiter, and returns the partial aggregate with the
// context's error.
func (d *Dispatcher) Run(ctx context.Context, units []core.UnitOfWork) (core.AggregatedOutput, error) {
	logger := d.logger.WithModule("dispatcher")
	logger.Info("Run started",
		telemetry.Int("units", len(units)),
		telemetry.Int("producers", len(d.producers)),
		telemetry.Int("max_concurrent_units", d.config.MaxConcurrentUnits))

	collector := NewCollector(len(units), d.events, d.logger)
	sem := make(chan struct{}, d.config.MaxConcurrentUnits)
	var wg sync.WaitGroup

dispatch:
	for _, unit := range units {
		select {
		case <-ctx.Done():
			logger.Info("Run cancelled, stopping dispatch",
				telemetry.Int("dispatched", collector.Progress().Collected))
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(unit core.UnitOfWork) {
			defer wg.Done()
			defer func() { <-sem }()
			d.processUnit(ctx, unit, collector)
		}(unit)
	}

	wg.Wait()

	output := collector.Summary()
	d.emit(core.RunDoneEvent{Output: output})
	logger.Info("Run finished",
		telemetry.Int("collected", output.Collected),
		telemetry.Int("total", output.Total),
		telemetry.Int("elapsed_ms", int(output.Elapsed.Milliseconds())))

	return output, ctx.Err()
}

// processUnit runs the barrier/judge cycle for one unit. The unit's barrier
// and context live only for this call; producers still in flight when the
// barrier resolves are cancelled rather than awaited.
func (d *Dispatcher) processUnit(ctx context.Context, unit core.UnitOfWork, collector *Collector) {
	logger := d.logger.WithModule("dispatcher")

	barrier, err := NewSyncBarrier(unit, d.config.Barrier, d.logger)
	if err != nil {
		// Config is validated at build time, so this only happens if a caller
		// mutated the config after construction.
		logger.Error("Failed to create barrier",
			telemetry.String("unit_id", unit.ID),
			telemetry.Err(err))
		collector.Add(core.SkippedDecision(unit))
		return
	}

	unitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.fanOut(unitCtx, unit, barrier)

	outcome := barrier.Await(ctx)
	cancel()

	d.emit(core.UnitStatusEvent{
		UnitID:        unit.ID,
		SequenceIndex: unit.SequenceIndex,
		Status:        outcome.Status,
		IncludedCount: len(outcome.Included),
		Latency:       outcome.Latency,
		Quality:       outcome.Quality,
	})

	if outcome.Status == core.StatusFailed || len(outcome.Included) == 0 {
		logger.Warn("Unit failed, skipping",
			telemetry.String("unit_id", unit.ID),
			telemetry.Int("sequence_index", unit.SequenceIndex))
		collector.Add(core.SkippedDecision(unit))
		return
	}

	decision, err := d.judge(ctx, unit, outcome)
	if err != nil {
		logger.Error("Judge failed, skipping unit",
			telemetry.String("unit_id", unit.ID),
			telemetry.Err(err))
		d.emit(core.ErrorEvent{Error: err, Retryable: false})
		collector.Add(core.SkippedDecision(unit))
		return
	}

	decision.UnitID = unit.ID
	decision.SequenceIndex = unit.SequenceIndex
	collector.Add(decision)
}

// emit publishes a run event without blocking
func (d *Dispatcher) emit(event core.Event) {
	if d.events == nil {
		return
	}
	select {
	case d.events <- event:
	default:
	}
}

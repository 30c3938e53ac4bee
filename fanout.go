package quorum

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

// ProducerFunc is the external producer contract: one candidate contribution
// per unit. Failures marked with core.Fatal are not retried.
type ProducerFunc func(ctx context.Context, unit core.UnitOfWork) (core.Candidate, error)

// JudgeFunc is the external consumer contract: select a winner among a
// barrier's included results
type JudgeFunc func(ctx context.Context, unit core.UnitOfWork, outcome core.BarrierOutcome) (core.Decision, error)

// fanOut starts one goroutine per expected producer kind, each wrapped in the
// dispatcher's retry executor, submitting into the barrier on success and
// contributing nothing on exhaustion. The barrier's own deadline, not producer
// liveness, bounds how long anyone waits.
func (d *Dispatcher) fanOut(ctx context.Context, unit core.UnitOfWork, barrier *SyncBarrier) *sync.WaitGroup {
	var wg sync.WaitGroup

	for kind, producer := range d.producers {
		wg.Add(1)
		go func(kind core.ProducerKind, producer ProducerFunc) {
			defer wg.Done()
			d.runProducer(ctx, unit, kind, producer, barrier)
		}(kind, producer)
	}

	return &wg
}

// runProducer executes one producer task with retry and panic recovery
func (d *Dispatcher) runProducer(ctx context.Context, unit core.UnitOfWork, kind core.ProducerKind, producer ProducerFunc, barrier *SyncBarrier) {
	logger := d.logger.WithModule("producer")

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			logger.Error("Producer panicked",
				telemetry.String("unit_id", unit.ID),
				telemetry.String("kind", string(kind)),
				telemetry.Err(fmt.Errorf("panic: %v\n%s", r, buf[:n])))
		}
	}()

	value, attempts, err := d.retry.Execute(ctx, func(ctx context.Context) (any, error) {
		return producer(ctx, unit)
	})
	if err != nil {
		// Exhaustion is not surfaced to the dispatcher; the barrier simply
		// never sees a success from this kind.
		logger.Debug("Producer exhausted",
			telemetry.String("unit_id", unit.ID),
			telemetry.String("kind", string(kind)),
			telemetry.Int("attempts", attempts),
			telemetry.Err(err))
		return
	}

	candidate, ok := value.(core.Candidate)
	if !ok {
		logger.Error("Producer returned unexpected value",
			telemetry.String("unit_id", unit.ID),
			telemetry.String("kind", string(kind)))
		return
	}

	barrier.Submit(core.WorkerResult{
		UnitID:      unit.ID,
		Kind:        kind,
		Payload:     candidate.Payload,
		Quality:     candidate.Quality,
		CompletedAt: time.Now(),
	})
}

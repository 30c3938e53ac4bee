package quorum

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

// SyncBarrier joins the contributions of all expected producers for a single
// unit of work, resolving under a two-tier timeout policy: all producers before
// the hard deadline means a complete resolution; otherwise the barrier degrades
// at the soft deadline when MinForSoft results are in, degrades further at the
// hard deadline when MinForHard results are in, and fails below that.
//
// A barrier resolves exactly once. Submissions after resolution and duplicate
// submissions for the same producer kind are dropped, not errors.
type SyncBarrier struct {
	unit   core.UnitOfWork
	config core.BarrierConfig
	logger telemetry.Logger

	mu        sync.Mutex
	results   map[core.ProducerKind]core.WorkerResult
	outcome   *core.BarrierOutcome
	createdAt time.Time
	resolved  chan struct{}
	softTimer *time.Timer
	hardTimer *time.Timer
}

// NewSyncBarrier creates a barrier for one unit and arms its deadline timers.
// The timers fire independently of producer liveness, so resolution happens no
// later than HardTimeout even if no producer ever reports.
func NewSyncBarrier(unit core.UnitOfWork, config core.BarrierConfig, logger telemetry.Logger) (*SyncBarrier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b := &SyncBarrier{
		unit:      unit,
		config:    config,
		logger:    logger.WithModule("barrier"),
		results:   make(map[core.ProducerKind]core.WorkerResult, config.ExpectedProducers),
		createdAt: time.Now(),
		resolved:  make(chan struct{}),
	}

	b.softTimer = time.AfterFunc(config.SoftTimeout, b.onSoftDeadline)
	b.hardTimer = time.AfterFunc(config.HardTimeout, b.onHardDeadline)

	return b, nil
}

// Submit records a producer result. It returns false if the result was dropped
// because the barrier already resolved or the kind already contributed.
func (b *SyncBarrier) Submit(result core.WorkerResult) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outcome != nil {
		b.logger.Warn("Dropping result for resolved barrier",
			telemetry.String("unit_id", b.unit.ID),
			telemetry.String("kind", string(result.Kind)))
		return false
	}

	if _, dup := b.results[result.Kind]; dup {
		b.logger.Warn("Dropping duplicate result",
			telemetry.String("unit_id", b.unit.ID),
			telemetry.String("kind", string(result.Kind)))
		return false
	}

	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}
	b.results[result.Kind] = result

	b.logger.Debug("Result submitted",
		telemetry.String("unit_id", b.unit.ID),
		telemetry.String("kind", string(result.Kind)),
		telemetry.Int("collected", len(b.results)),
		telemetry.Int("expected", b.config.ExpectedProducers))

	if len(b.results) == b.config.ExpectedProducers {
		b.resolveLocked(core.StatusComplete, time.Since(b.createdAt))
	}

	return true
}

// Await blocks until the barrier resolves or the context is cancelled.
// Cancellation aborts the barrier, so every waiter observes the same outcome.
func (b *SyncBarrier) Await(ctx context.Context) core.BarrierOutcome {
	select {
	case <-b.resolved:
	case <-ctx.Done():
		b.Abort()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.outcome
}

// Abort resolves the barrier as failed immediately. Used for run-level
// cancellation; a no-op once resolved.
func (b *SyncBarrier) Abort() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outcome != nil {
		return
	}
	b.logger.Info("Barrier aborted", telemetry.String("unit_id", b.unit.ID))
	b.resolveLocked(core.StatusFailed, time.Since(b.createdAt))
}

// Status returns the current status without blocking
func (b *SyncBarrier) Status() core.BarrierStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outcome == nil {
		return core.StatusWaiting
	}
	return b.outcome.Status
}

// Collected returns how many producers have contributed so far
func (b *SyncBarrier) Collected() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.results)
}

// onSoftDeadline fires at SoftTimeout: with fewer than the full set but at
// least MinForSoft results in, resolve soft-degraded now rather than waiting
// for stragglers.
func (b *SyncBarrier) onSoftDeadline() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outcome != nil {
		return
	}
	if len(b.results) >= b.config.MinForSoft {
		b.resolveLocked(core.StatusSoftDegraded, b.config.SoftTimeout)
	}
}

// onHardDeadline fires at HardTimeout: resolve hard-degraded with at least
// MinForHard results, failed otherwise.
func (b *SyncBarrier) onHardDeadline() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.outcome != nil {
		return
	}
	if len(b.results) >= b.config.MinForHard {
		b.resolveLocked(core.StatusHardDegraded, b.config.HardTimeout)
	} else {
		b.resolveLocked(core.StatusFailed, b.config.HardTimeout)
	}
}

// resolveLocked performs the single status transition. Caller holds the lock;
// the first caller wins and later resolution attempts are no-ops because every
// path checks outcome first.
func (b *SyncBarrier) resolveLocked(status core.BarrierStatus, latency time.Duration) {
	b.softTimer.Stop()
	b.hardTimer.Stop()

	var included []core.WorkerResult
	if status != core.StatusFailed {
		included = make([]core.WorkerResult, 0, len(b.results))
		for _, r := range b.results {
			included = append(included, r)
		}
		sort.Slice(included, func(i, j int) bool {
			return included[i].CompletedAt.Before(included[j].CompletedAt)
		})
	}

	b.outcome = &core.BarrierOutcome{
		Status:   status,
		Included: included,
		Latency:  latency,
		Quality:  core.DegradedQuality(included, b.config.ExpectedProducers),
	}

	b.logger.Info("Barrier resolved",
		telemetry.String("unit_id", b.unit.ID),
		telemetry.String("status", string(status)),
		telemetry.Int("included", len(included)),
		telemetry.Int("latency_ms", int(latency.Milliseconds())))

	close(b.resolved)
}

package quorum

import (
	"sort"
	"sync"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

// Collector accumulates decisions keyed by unit id and exposes them back in
// original sequence order regardless of arrival order. It is safe for
// concurrent use and its lock is never held together with a barrier's.
//
// The collector always produces a correct partial ordered view, including when
// a run is stopped early with some units never resolved.
type Collector struct {
	logger telemetry.Logger
	events chan<- core.Event

	mu        sync.Mutex
	total     int
	createdAt time.Time
	decisions map[string]core.Decision
}

// NewCollector creates a collector for a run of total units. The events
// channel is optional; when set, accepted decisions and progress snapshots are
// published to it with non-blocking sends.
func NewCollector(total int, events chan<- core.Event, logger telemetry.Logger) *Collector {
	return &Collector{
		logger:    logger.WithModule("collector"),
		events:    events,
		total:     total,
		createdAt: time.Now(),
		decisions: make(map[string]core.Decision, total),
	}
}

// Add records a decision. Idempotent per unit id: a second decision for the
// same unit is dropped with a warning and does not change progress.
func (c *Collector) Add(decision core.Decision) bool {
	c.mu.Lock()

	if _, dup := c.decisions[decision.UnitID]; dup {
		c.mu.Unlock()
		c.logger.Warn("Dropping duplicate decision",
			telemetry.String("unit_id", decision.UnitID))
		return false
	}

	c.decisions[decision.UnitID] = decision
	progress := c.progressLocked()
	c.mu.Unlock()

	c.logger.Debug("Decision collected",
		telemetry.String("unit_id", decision.UnitID),
		telemetry.Int("sequence_index", decision.SequenceIndex),
		telemetry.Bool("skipped", decision.Skipped),
		telemetry.Int("collected", progress.Collected),
		telemetry.Int("total", progress.Total))

	c.emit(core.DecisionEvent{Decision: decision})
	c.emit(core.ProgressEvent{
		Collected:  progress.Collected,
		Total:      progress.Total,
		Percentage: progress.Percentage,
	})

	return true
}

// Progress returns the current collection progress
func (c *Collector) Progress() core.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

func (c *Collector) progressLocked() core.Progress {
	p := core.Progress{
		Collected: len(c.decisions),
		Total:     c.total,
	}
	if c.total > 0 {
		p.Percentage = float64(p.Collected) / float64(c.total) * 100
	}
	return p
}

// IsComplete reports whether every unit has been collected
func (c *Collector) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.decisions) >= c.total
}

// OrderedDecisions returns the decisions collected so far, skipped units
// filtered out, sorted by the originating unit's sequence index
func (c *Collector) OrderedDecisions() []core.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderedLocked()
}

func (c *Collector) orderedLocked() []core.Decision {
	ordered := make([]core.Decision, 0, len(c.decisions))
	for _, d := range c.decisions {
		if d.Skipped {
			continue
		}
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SequenceIndex < ordered[j].SequenceIndex
	})
	return ordered
}

// Summary aggregates the run so far: ordered decisions, selected-kind
// distribution, mean selected quality, and wall time since creation
func (c *Collector) Summary() core.AggregatedOutput {
	c.mu.Lock()
	defer c.mu.Unlock()

	ordered := c.orderedLocked()

	distribution := make(map[core.ProducerKind]int)
	qualitySum := 0.0
	selected := 0
	for _, d := range ordered {
		if d.Selected == nil {
			continue
		}
		distribution[d.Selected.Kind]++
		qualitySum += d.Selected.Quality
		selected++
	}

	mean := 0.0
	if selected > 0 {
		mean = qualitySum / float64(selected)
	}

	return core.AggregatedOutput{
		Decisions:        ordered,
		Collected:        len(c.decisions),
		Total:            c.total,
		KindDistribution: distribution,
		MeanQuality:      mean,
		Elapsed:          time.Since(c.createdAt),
	}
}

// emit publishes an event without blocking; a slow or absent consumer never
// stalls collection
func (c *Collector) emit(event core.Event) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- event:
	default:
	}
}

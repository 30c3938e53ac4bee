package core

import (
	"time"

	"github.com/google/uuid"
)

// ProducerKind identifies one of the fixed set of producers expected per unit
type ProducerKind string

// BarrierStatus describes how a barrier resolved
type BarrierStatus string

const (
	// StatusWaiting means the barrier has not resolved yet
	StatusWaiting BarrierStatus = "waiting"

	// StatusComplete means all expected producers succeeded before the hard deadline
	StatusComplete BarrierStatus = "complete"

	// StatusSoftDegraded means the barrier resolved at the soft deadline with at
	// least MinForSoft results
	StatusSoftDegraded BarrierStatus = "soft_degraded"

	// StatusHardDegraded means the barrier resolved at the hard deadline with at
	// least MinForHard results
	StatusHardDegraded BarrierStatus = "hard_degraded"

	// StatusFailed means the hard deadline passed with fewer than MinForHard
	// results, or the barrier was aborted
	StatusFailed BarrierStatus = "failed"
)

// UnitOfWork is one task requiring a contribution from every expected producer.
// Immutable once created; SequenceIndex defines the canonical output order.
type UnitOfWork struct {
	ID            string
	SequenceIndex int
	Metadata      map[string]any
}

// NewUnit creates a unit of work with a generated ID
func NewUnit(sequenceIndex int, metadata map[string]any) UnitOfWork {
	return UnitOfWork{
		ID:            uuid.NewString(),
		SequenceIndex: sequenceIndex,
		Metadata:      metadata,
	}
}

// Candidate is what a producer returns for a unit
type Candidate struct {
	Payload any
	Quality float64
}

// WorkerResult is a successful producer contribution for one unit
type WorkerResult struct {
	UnitID      string
	Kind        ProducerKind
	Payload     any
	Quality     float64
	CompletedAt time.Time
}

// BarrierOutcome is the resolved state of a barrier.
// Quality is the best included quality scaled by the degradation penalty.
type BarrierOutcome struct {
	Status   BarrierStatus
	Included []WorkerResult
	Latency  time.Duration
	Quality  float64
}

// DegradedQuality applies the degradation penalty to the best included quality:
// each missing producer costs 5% of the score, floored at zero.
func DegradedQuality(included []WorkerResult, expected int) float64 {
	if len(included) == 0 {
		return 0
	}
	best := 0.0
	for _, r := range included {
		if r.Quality > best {
			best = r.Quality
		}
	}
	penalty := 1 - 0.05*float64(expected-len(included))
	if penalty < 0 {
		penalty = 0
	}
	return best * penalty
}

// Decision is the judge's selection among a barrier's included results.
// Owned by the Collector once submitted.
type Decision struct {
	UnitID        string
	SequenceIndex int
	Selected      *WorkerResult
	Candidates    []WorkerResult
	Reasoning     string
	PerKindScore  map[ProducerKind]float64
	Skipped       bool
}

// SkippedDecision marks a unit whose barrier failed; it is counted as collected
// but excluded from the ordered output
func SkippedDecision(unit UnitOfWork) Decision {
	return Decision{
		UnitID:        unit.ID,
		SequenceIndex: unit.SequenceIndex,
		Skipped:       true,
	}
}

// Progress is a snapshot of how many units have been collected
type Progress struct {
	Collected  int
	Total      int
	Percentage float64
}

// AggregatedOutput is the final ordered view of a run
type AggregatedOutput struct {
	Decisions        []Decision
	Collected        int
	Total            int
	KindDistribution map[ProducerKind]int
	MeanQuality      float64
	Elapsed          time.Duration
}

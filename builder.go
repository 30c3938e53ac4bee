package quorum

import (
	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

// Builder constructs dispatchers with a fluent API. All dependencies are
// explicit; nothing is read from ambient global state.
type Builder struct {
	config    core.DispatcherConfig
	producers map[core.ProducerKind]ProducerFunc
	judge     JudgeFunc
	logger    telemetry.Logger
	events    chan<- core.Event
}

// NewBuilder creates a dispatcher builder with single-unit concurrency
func NewBuilder() *Builder {
	return &Builder{
		config: core.DispatcherConfig{
			MaxConcurrentUnits: 1,
		},
		producers: make(map[core.ProducerKind]ProducerFunc),
	}
}

// WithBarrierConfig sets the per-unit barrier policy
func (b *Builder) WithBarrierConfig(config core.BarrierConfig) *Builder {
	b.config.Barrier = config
	return b
}

// WithRetryConfig sets the per-producer retry policy
func (b *Builder) WithRetryConfig(config core.RetryConfig) *Builder {
	b.config.Retry = config
	return b
}

// WithConcurrency bounds how many units are in flight at once
func (b *Builder) WithConcurrency(maxConcurrentUnits int) *Builder {
	b.config.MaxConcurrentUnits = maxConcurrentUnits
	return b
}

// WithProducer registers the producer for one kind. Exactly one producer per
// expected kind must be registered before Build.
func (b *Builder) WithProducer(kind core.ProducerKind, producer ProducerFunc) *Builder {
	b.producers[kind] = producer
	return b
}

// WithJudge sets the decision step invoked on each resolved barrier
func (b *Builder) WithJudge(judge JudgeFunc) *Builder {
	b.judge = judge
	return b
}

// WithLogger sets the structured logger; a default one is created otherwise
func (b *Builder) WithLogger(logger telemetry.Logger) *Builder {
	b.logger = logger
	return b
}

// WithEvents sets an optional channel receiving run events (unit status,
// progress, decisions, run end). Sends never block; size the channel for the
// consumer's pace.
func (b *Builder) WithEvents(events chan<- core.Event) *Builder {
	b.events = events
	return b
}

// Build validates the configuration and wiring, failing fast on invariant
// violations, and returns a ready dispatcher
func (b *Builder) Build() (*Dispatcher, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if err := validateSetup(b.config, b.producers, b.judge); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = telemetry.New(telemetry.Config{Level: "info"})
	}

	retry, err := NewRetryExecutor(b.config.Retry, logger)
	if err != nil {
		return nil, err
	}

	producers := make(map[core.ProducerKind]ProducerFunc, len(b.producers))
	for kind, producer := range b.producers {
		producers[kind] = producer
	}

	return &Dispatcher{
		config:    b.config,
		producers: producers,
		judge:     b.judge,
		retry:     retry,
		logger:    logger,
		events:    b.events,
	}, nil
}

package quorum

import (
	"fmt"

	"github.com/creastat/quorum/core"
)

// validateSetup checks the wiring between the configured barrier policy and
// the registered collaborators: exactly one producer per expected kind and a
// judge to consume resolved outcomes
func validateSetup(config core.DispatcherConfig, producers map[core.ProducerKind]ProducerFunc, judge JudgeFunc) error {
	if len(producers) != config.Barrier.ExpectedProducers {
		return core.ValidationError{
			Message: "dispatcher validation failed",
			Details: fmt.Sprintf("barrier expects %d producers, %d registered",
				config.Barrier.ExpectedProducers, len(producers)),
		}
	}

	for kind, producer := range producers {
		if producer == nil {
			return core.ValidationError{
				Message: "dispatcher validation failed",
				Details: fmt.Sprintf("producer %q is nil", kind),
			}
		}
	}

	if judge == nil {
		return core.ValidationError{
			Message: "dispatcher validation failed",
			Details: "judge must be set",
		}
	}

	return nil
}

package risk

import (
	"context"
	"sync"

	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/types"
)

// BreakerAction tells the controller whether to keep scheduling cycles.
type BreakerAction string

const (
	Continue BreakerAction = "continue"
	Halt     BreakerAction = "halt"
)

// CircuitBreaker counts consecutive cycle failures and halts the agent when
// the threshold is reached. Fatal error classes halt immediately regardless
// of the counter.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	failures  int
}

func NewCircuitBreaker(threshold int) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	return &CircuitBreaker{threshold: threshold}
}

// OnSuccess resets the failure counter.
func (cb *CircuitBreaker) OnSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
}

// OnFailure records a failed cycle and decides whether the agent may try
// again at the next interval.
func (cb *CircuitBreaker) OnFailure(ctx context.Context, err error) BreakerAction {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if types.IsFatal(err) {
		logger.ErrorWithErr(ctx, "Fatal error, halting immediately", err)
		return Halt
	}

	cb.failures++
	if cb.failures >= cb.threshold {
		logger.Error(ctx, "Consecutive failure threshold reached, halting",
			"failures", cb.failures,
			"threshold", cb.threshold,
		)
		return Halt
	}

	logger.Warn(ctx, "Cycle failed, will retry at next interval",
		"error", err,
		"failures", cb.failures,
		"threshold", cb.threshold,
	)
	return Continue
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

package engine

import (
	"context"
	"sync"
	"time"

	"forex-trading-agent/internal/interfaces"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/perf"
	"forex-trading-agent/internal/risk"
	"forex-trading-agent/internal/types"
)

// StateStore persists the lifecycle flag so a restart can resume. Nil
// disables persistence.
type StateStore interface {
	SetRunning(running bool) error
}

// Controller owns the agent lifecycle. Cycles execute serially on a single
// goroutine: a timer tick during a slow cycle coalesces rather than starting
// a second cycle, so no data mutex guards the cycle path.
type Controller struct {
	interval time.Duration
	eng      interfaces.Engine
	breaker  *risk.CircuitBreaker
	tracker  *perf.Tracker
	state    StateStore
	notify   func(msg string)

	mu        sync.Mutex
	agentMode types.AgentState
	stop      chan struct{}
	done      chan struct{}
}

// Status is a consistent read-only view for reporting paths.
type Status struct {
	State               types.AgentState          `json:"state"`
	ConsecutiveFailures int                       `json:"consecutive_failures"`
	Performance         types.PerformanceSnapshot `json:"performance"`
}

func NewController(interval time.Duration, eng interfaces.Engine, breaker *risk.CircuitBreaker, tracker *perf.Tracker, state StateStore) *Controller {
	return &Controller{
		interval:  interval,
		eng:       eng,
		breaker:   breaker,
		tracker:   tracker,
		state:     state,
		agentMode: types.StateIdle,
	}
}

// SetNotifier installs the operator notification hook used on halt.
func (c *Controller) SetNotifier(fn func(msg string)) {
	c.notify = fn
}

// Start transitions Idle to Running: one cycle executes immediately, then
// the periodic timer is armed. A no-op when already Running.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.agentMode != types.StateIdle {
		logger.Info(ctx, "Start ignored, agent not idle", "state", string(c.agentMode))
		return
	}
	c.agentMode = types.StateRunning
	c.persistRunning(ctx, true)

	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	logger.Info(ctx, "Agent started", "interval", c.interval.String())
	go c.loop(c.stop, c.done)
}

// Stop transitions Running to Idle. An in-flight cycle finishes naturally,
// including any external call in progress; Stop only prevents scheduling of
// subsequent cycles, then joins the scheduler goroutine. A no-op unless
// Running.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	if c.agentMode != types.StateRunning {
		c.mu.Unlock()
		return
	}
	c.agentMode = types.StateStopping
	stop, done := c.stop, c.done
	c.mu.Unlock()

	close(stop)
	<-done

	c.mu.Lock()
	c.agentMode = types.StateIdle
	c.persistRunning(ctx, false)
	c.mu.Unlock()
	logger.Info(ctx, "Agent stopped")
}

// State returns the current lifecycle state.
func (c *Controller) State() types.AgentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agentMode
}

// Status returns a consistent view for external reporting. Readers never
// mutate agent state through this path.
func (c *Controller) Status() Status {
	c.mu.Lock()
	mode := c.agentMode
	c.mu.Unlock()
	return Status{
		State:               mode,
		ConsecutiveFailures: c.breaker.Failures(),
		Performance:         c.tracker.Snapshot(),
	}
}

// Wait blocks until the scheduler goroutine exits. Returns immediately when
// the agent is idle.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Controller) loop(stop <-chan struct{}, done chan struct{}) {
	defer close(done)

	// Cycles run on an independent context: stopping must never abort an
	// external call already in flight. Per-call timeouts inside the engine
	// bound how long a cycle can run.
	ctx := context.Background()

	if halt := c.runOnce(ctx); halt {
		c.haltFromLoop(ctx)
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			if halt := c.runOnce(ctx); halt {
				c.haltFromLoop(ctx)
				return
			}
		}
	}
}

// runOnce executes one cycle and feeds the outcome to the circuit breaker.
// Returns true when the breaker demands a halt.
func (c *Controller) runOnce(ctx context.Context) bool {
	res, err := c.eng.Cycle(ctx)
	if err != nil {
		return c.breaker.OnFailure(ctx, err) == risk.Halt
	}

	c.breaker.OnSuccess()
	logger.Info(ctx, "Cycle completed",
		"instrument", res.Instrument,
		"status", string(res.Status),
	)
	return false
}

// haltFromLoop transitions to Idle from inside the scheduler goroutine.
// Stop is not used here: it joins this goroutine and would deadlock.
func (c *Controller) haltFromLoop(ctx context.Context) {
	c.mu.Lock()
	c.agentMode = types.StateIdle
	c.persistRunning(ctx, false)
	c.mu.Unlock()

	msg := "trading agent halted by circuit breaker"
	logger.Error(ctx, "Agent halted", "reason", msg)
	if c.notify != nil {
		c.notify(msg)
	}
}

func (c *Controller) persistRunning(ctx context.Context, running bool) {
	if c.state == nil {
		return
	}
	if err := c.state.SetRunning(running); err != nil {
		logger.Warn(ctx, "Failed to persist lifecycle flag", "running", running, "error", err)
	}
}

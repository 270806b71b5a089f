package llmobs

import (
	"context"

	"forex-trading-agent/internal/interfaces"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/trace"
	"forex-trading-agent/internal/types"
)

// observableDecider wraps a Decider with observability (logging & tracing)
type observableDecider struct {
	decider interfaces.Decider
}

var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware
func Wrap(decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{decider: decider}
}

func (od *observableDecider) Decide(ctx context.Context, snap types.MarketSnapshot, signals []types.StrategySignal, recent []types.TradeRecord) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Decide", trace.WithInstrument(snap.Instrument))
	defer span.End()

	// Skip(1) so logs report the actual caller, not this middleware.
	logger.DebugSkip(ctx, 1, "Requesting trading decision",
		"instrument", snap.Instrument,
		"signals", len(signals),
		"history", len(recent),
	)

	decision, err := od.decider.Decide(ctx, snap, signals, recent)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get trading decision", err,
			"instrument", snap.Instrument,
		)
		return types.Decision{}, err
	}

	logger.InfoSkip(ctx, 1, "Trading decision received",
		"instrument", snap.Instrument,
		"action", string(decision.Action),
		"direction", string(decision.Direction),
		"confidence", decision.Confidence,
	)

	return decision, nil
}

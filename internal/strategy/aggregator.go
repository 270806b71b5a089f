package strategy

import (
	"context"

	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/types"
)

// Aggregator evaluates every registered strategy against a snapshot and
// combines the fired signals into a consensus direction. It is a pure
// function of its input: no network calls, no side effects beyond logging.
type Aggregator struct {
	strategies []Strategy
}

func NewAggregator(strategies ...Strategy) *Aggregator {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Aggregator{strategies: strategies}
}

// Aggregate runs all strategies unconditionally, in registration order, and
// returns the fired signals plus the majority direction. An exact tie (or no
// fired signal at all) yields None, which the engine treats as hold.
func (a *Aggregator) Aggregate(ctx context.Context, snap types.MarketSnapshot) ([]types.StrategySignal, types.Direction) {
	fired := make([]types.StrategySignal, 0, len(a.strategies))
	for _, s := range a.strategies {
		sig := s.Evaluate(snap, fired)
		if sig.Direction == types.None {
			continue
		}
		fired = append(fired, sig)
		logger.Debug(ctx, "Strategy fired",
			"strategy", sig.Strategy,
			"direction", string(sig.Direction),
			"strength", sig.Strength,
		)
	}
	return fired, Consensus(fired)
}

// Consensus returns the majority direction among fired signals. Exact ties
// resolve to None rather than an inferred priority order.
func Consensus(signals []types.StrategySignal) types.Direction {
	buys, sells := 0, 0
	for _, sig := range signals {
		switch sig.Direction {
		case types.Buy:
			buys++
		case types.Sell:
			sells++
		}
	}
	switch {
	case buys > sells:
		return types.Buy
	case sells > buys:
		return types.Sell
	}
	return types.None
}

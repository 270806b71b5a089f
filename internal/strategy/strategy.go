package strategy

import (
	"forex-trading-agent/internal/types"
)

// Strategy is a pure predicate over one market snapshot. Evaluate returns a
// signal with Direction none when the strategy does not fire. prior carries
// the signals already produced this cycle, in registration order; only the
// confirmation strategy reads it.
type Strategy interface {
	Name() string
	Evaluate(snap types.MarketSnapshot, prior []types.StrategySignal) types.StrategySignal
}

// DefaultStrategies returns the registered strategy list in evaluation
// order. Confirmation runs last so it can see all other signals.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewTrendFollowing(),
		NewBreakout(),
		NewMeanReversion(),
		NewPatternRecognition(),
		NewConfirmation(),
	}
}

func signal(name string, dir types.Direction, strength float64) types.StrategySignal {
	if strength > 1 {
		strength = 1
	}
	if strength < 0 {
		strength = 0
	}
	return types.StrategySignal{Strategy: name, Direction: dir, Strength: strength}
}

func noSignal(name string) types.StrategySignal {
	return types.StrategySignal{Strategy: name, Direction: types.None}
}

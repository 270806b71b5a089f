package noop

import (
	"context"

	"forex-trading-agent/internal/types"
)

// Decider always holds. Used when no LLM provider is configured.
type Decider struct{}

func NewDecider() *Decider { return &Decider{} }

func (d *Decider) Decide(_ context.Context, _ types.MarketSnapshot, _ []types.StrategySignal, _ []types.TradeRecord) (types.Decision, error) {
	return types.HoldDecision("noop decider always holds"), nil
}

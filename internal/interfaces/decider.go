package interfaces

import (
	"context"

	"forex-trading-agent/internal/types"
)

// Decider is the decision oracle: given the structured market snapshot, the
// aggregated strategy signals, and recent trade history, it proposes a
// Decision. Implementations normalize unrecognized responses to a safe hold
// rather than returning malformed data.
type Decider interface {
	Decide(ctx context.Context, snap types.MarketSnapshot, signals []types.StrategySignal, recent []types.TradeRecord) (types.Decision, error)
}

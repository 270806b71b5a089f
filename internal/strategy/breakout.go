package strategy

import "forex-trading-agent/internal/types"

const pip = 0.0001

// Breakout fires when the current price has crossed a stored level:
// above resistance is a buy, below support is a sell.
type Breakout struct{}

func NewBreakout() *Breakout { return &Breakout{} }

func (s *Breakout) Name() string { return "breakout" }

func (s *Breakout) Evaluate(snap types.MarketSnapshot, _ []types.StrategySignal) types.StrategySignal {
	price, ok := snap.PriceLevels["current"]
	if !ok {
		return noSignal(s.Name())
	}
	if res, ok := snap.PriceLevels["resistance"]; ok && price > res {
		return signal(s.Name(), types.Buy, (price-res)/pip/10)
	}
	if sup, ok := snap.PriceLevels["support"]; ok && price < sup {
		return signal(s.Name(), types.Sell, (sup-price)/pip/10)
	}
	return noSignal(s.Name())
}

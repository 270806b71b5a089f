package strategy

import "forex-trading-agent/internal/types"

// TrendFollowing reacts to the MACD reading crossing a directional
// threshold. Values inside the dead zone produce no signal.
type TrendFollowing struct {
	threshold float64
}

func NewTrendFollowing() *TrendFollowing {
	return &TrendFollowing{threshold: 0.0005}
}

func (s *TrendFollowing) Name() string { return "trend_following" }

func (s *TrendFollowing) Evaluate(snap types.MarketSnapshot, _ []types.StrategySignal) types.StrategySignal {
	macd, ok := snap.Indicators["macd"]
	if !ok {
		return noSignal(s.Name())
	}
	switch {
	case macd > s.threshold:
		return signal(s.Name(), types.Buy, macd/(2*s.threshold))
	case macd < -s.threshold:
		return signal(s.Name(), types.Sell, -macd/(2*s.threshold))
	}
	return noSignal(s.Name())
}

package strategy

import "forex-trading-agent/internal/types"

// MeanReversion trades oscillator extremes: RSI below 30 is oversold (buy),
// above 70 is overbought (sell).
type MeanReversion struct {
	oversold   float64
	overbought float64
}

func NewMeanReversion() *MeanReversion {
	return &MeanReversion{oversold: 30, overbought: 70}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Evaluate(snap types.MarketSnapshot, _ []types.StrategySignal) types.StrategySignal {
	rsi, ok := snap.Indicators["rsi"]
	if !ok {
		return noSignal(s.Name())
	}
	switch {
	case rsi < s.oversold:
		return signal(s.Name(), types.Buy, (s.oversold-rsi)/s.oversold)
	case rsi > s.overbought:
		return signal(s.Name(), types.Sell, (rsi-s.overbought)/(100-s.overbought))
	}
	return noSignal(s.Name())
}

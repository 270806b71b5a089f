package strategy

import "forex-trading-agent/internal/types"

// Confirmation fires when at least two other strategies already agree in
// direction this cycle. It is registered last so prior holds everyone else's
// signals.
type Confirmation struct {
	required int
}

func NewConfirmation() *Confirmation { return &Confirmation{required: 2} }

func (s *Confirmation) Name() string { return "confirmation" }

func (s *Confirmation) Evaluate(_ types.MarketSnapshot, prior []types.StrategySignal) types.StrategySignal {
	buys, sells := 0, 0
	for _, sig := range prior {
		switch sig.Direction {
		case types.Buy:
			buys++
		case types.Sell:
			sells++
		}
	}
	switch {
	case buys >= s.required && buys > sells:
		return signal(s.Name(), types.Buy, float64(buys)/float64(len(prior)+1))
	case sells >= s.required && sells > buys:
		return signal(s.Name(), types.Sell, float64(sells)/float64(len(prior)+1))
	}
	return noSignal(s.Name())
}

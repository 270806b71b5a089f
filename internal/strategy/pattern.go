package strategy

import "forex-trading-agent/internal/types"

var bullishPatterns = []string{
	"bullish_engulfing", "hammer", "inverted_hammer", "morning_star", "three_white_soldiers",
}

var bearishPatterns = []string{
	"bearish_engulfing", "shooting_star", "evening_star", "hanging_man", "three_black_crows",
}

// PatternRecognition fires on detected candlestick patterns. When both
// bullish and bearish tokens are present the larger count wins; an equal
// count yields no signal.
type PatternRecognition struct{}

func NewPatternRecognition() *PatternRecognition { return &PatternRecognition{} }

func (s *PatternRecognition) Name() string { return "pattern_recognition" }

func (s *PatternRecognition) Evaluate(snap types.MarketSnapshot, _ []types.StrategySignal) types.StrategySignal {
	bulls := countPatterns(snap, bullishPatterns)
	bears := countPatterns(snap, bearishPatterns)
	switch {
	case bulls > bears:
		return signal(s.Name(), types.Buy, 0.5+0.1*float64(bulls))
	case bears > bulls:
		return signal(s.Name(), types.Sell, 0.5+0.1*float64(bears))
	}
	return noSignal(s.Name())
}

func countPatterns(snap types.MarketSnapshot, names []string) int {
	n := 0
	for _, name := range names {
		if snap.HasPattern(name) {
			n++
		}
	}
	return n
}

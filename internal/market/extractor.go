package market

import (
	"context"
	"strconv"
	"strings"
	"time"

	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/types"
)

// Extractor turns raw parsed elements into a structured market snapshot.
// It never fails: elements that match no classifier are ignored, malformed
// numeric payloads are logged and skipped.
type Extractor struct {
	instrument string
}

func NewExtractor(instrument string) *Extractor {
	return &Extractor{instrument: instrument}
}

type keyword struct {
	prefix string
	key    string
}

// Ordered so classification is deterministic. Longer prefixes come before
// their substrings (e.g. "stoch" before "s").
var indicatorKeywords = []keyword{
	{"rsi", "rsi"},
	{"macd", "macd"},
	{"atr", "atr"},
	{"adx", "adx"},
	{"cci", "cci"},
	{"stoch", "stochastic"},
	{"sma", "sma"},
	{"ema", "ema"},
	{"volatility", "volatility"},
	{"volume", "volume"},
}

var priceKeywords = []keyword{
	{"current", "current"},
	{"price", "current"},
	{"bid", "current"},
	{"ask", "ask"},
	{"high", "high"},
	{"low", "low"},
	{"support", "support"},
	{"resistance", "resistance"},
	{"pivot", "pivot"},
}

// Candlestick pattern vocabulary recognized on icon elements.
var patternVocabulary = map[string]bool{
	"bullish_engulfing":    true,
	"bearish_engulfing":    true,
	"hammer":               true,
	"inverted_hammer":      true,
	"doji":                 true,
	"shooting_star":        true,
	"morning_star":         true,
	"evening_star":         true,
	"hanging_man":          true,
	"three_white_soldiers": true,
	"three_black_crows":    true,
}

// Extract builds one snapshot from the parser output. Multiple elements may
// contribute the same indicator or price level; the last one in list order
// wins. All elements count toward ElementCount, recognized or not.
func (e *Extractor) Extract(ctx context.Context, elements []types.ParsedElement) types.MarketSnapshot {
	snap := types.MarketSnapshot{
		Instrument:   e.instrument,
		ObservedAt:   time.Now().UTC(),
		Indicators:   map[string]float64{},
		PriceLevels:  map[string]float64{},
		Patterns:     map[string]bool{},
		ElementCount: len(elements),
	}

	for _, el := range elements {
		switch el.Kind {
		case types.ElementIcon:
			if name, ok := matchPattern(el.Text); ok {
				snap.Patterns[name] = true
			}
		case types.ElementText:
			e.classifyText(ctx, el.Text, &snap)
		}
	}

	return snap
}

func (e *Extractor) classifyText(ctx context.Context, text string, snap *types.MarketSnapshot) {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return
	}

	if key, rest, ok := matchKeyword(norm, indicatorKeywords); ok {
		if v, ok := lastNumber(rest); ok {
			snap.Indicators[key] = v
		} else {
			logger.Warn(ctx, "Malformed indicator payload skipped", "indicator", key, "text", text)
		}
		return
	}

	if key, rest, ok := matchKeyword(norm, priceKeywords); ok {
		if v, ok := lastNumber(rest); ok {
			snap.PriceLevels[key] = v
		} else {
			logger.Warn(ctx, "Malformed price payload skipped", "level", key, "text", text)
		}
		return
	}

	// A bare quote-style number (three or more decimals) is the current price.
	if v, ok := looksLikeQuote(norm); ok {
		snap.PriceLevels["current"] = v
	}
}

func matchKeyword(norm string, kws []keyword) (key, rest string, ok bool) {
	for _, kw := range kws {
		if strings.HasPrefix(norm, kw.prefix) {
			return kw.key, norm[len(kw.prefix):], true
		}
	}
	return "", "", false
}

// lastNumber extracts the last parseable numeric token from a payload like
// ": 28.4", "(14): 28.4" or "= 1.0845". Returns false for payloads with no
// parseable number.
func lastNumber(rest string) (float64, bool) {
	tokens := strings.FieldsFunc(rest, func(r rune) bool {
		return r == ':' || r == '=' || r == ' ' || r == ','
	})
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := strings.TrimSuffix(tokens[i], "%")
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func looksLikeQuote(norm string) (float64, bool) {
	dot := strings.IndexByte(norm, '.')
	if dot < 0 || len(norm)-dot-1 < 3 {
		return 0, false
	}
	v, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func matchPattern(text string) (string, bool) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), " ", "_")
	if patternVocabulary[norm] {
		return norm, true
	}
	return "", false
}

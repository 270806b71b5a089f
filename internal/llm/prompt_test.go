package llm

import (
	"strings"
	"testing"
	"time"

	"forex-trading-agent/internal/types"
)

func TestBuildPromptSections(t *testing.T) {
	snap := types.MarketSnapshot{
		Instrument:  "EUR_USD",
		Indicators:  map[string]float64{"rsi": 28.4},
		PriceLevels: map[string]float64{"current": 1.0845},
	}
	signals := []types.StrategySignal{
		{Strategy: "mean_reversion", Direction: types.Buy, Strength: 0.2},
	}
	pl := -12.5
	recent := []types.TradeRecord{
		{
			Timestamp:  time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
			Decision:   types.Decision{Action: types.ActionOpen, Direction: types.Sell},
			ProfitLoss: &pl,
		},
	}

	prompt := BuildPrompt(snap, signals, recent, []string{"ECB holds rates"})

	for _, want := range []string{
		"MARKET DATA:",
		"EUR_USD",
		"mean_reversion",
		"1 buy signals, 0 sell signals",
		"RECENT TRADE HISTORY:",
		"P/L: -12.50",
		"MARKET CONTEXT:",
		"- ECB holds rates",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestBuildPromptNoHistory(t *testing.T) {
	prompt := BuildPrompt(types.MarketSnapshot{}, nil, nil, nil)

	if !strings.Contains(prompt, "No previous trades") {
		t.Error("Expected empty-history marker")
	}
	if strings.Contains(prompt, "MARKET CONTEXT:") {
		t.Error("Expected no context section without extra lines")
	}
}

func TestTailRecords(t *testing.T) {
	records := make([]types.TradeRecord, 8)
	for i := range records {
		records[i].ID = string(rune('a' + i))
	}

	tail := TailRecords(records)
	if len(tail) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(tail))
	}
	if tail[0].ID != "d" {
		t.Errorf("Expected tail to start at d, got %s", tail[0].ID)
	}

	short := TailRecords(records[:3])
	if len(short) != 3 {
		t.Errorf("Expected short history unchanged, got %d", len(short))
	}
}

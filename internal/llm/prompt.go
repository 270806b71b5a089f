package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"forex-trading-agent/internal/types"
)

// ContextProvider supplies extra market context lines (e.g. news headlines)
// for the oracle prompt. Optional; failures are treated as no context.
type ContextProvider interface {
	MarketContext(ctx context.Context, instrument string) []string
}

const DefaultSystem = "You are an expert forex trading assistant. Analyze the market data and respond ONLY with a compact JSON object: " +
	`{"action":"buy|sell|hold","confidence":0.0-1.0,"reasoning":["..."]}`

// BuildPrompt composes the user prompt from the snapshot, the strategy
// signals, and up to the last five trade records, mirroring what the oracle
// needs to weigh recent behavior.
func BuildPrompt(snap types.MarketSnapshot, signals []types.StrategySignal, recent []types.TradeRecord, extra []string) string {
	var b strings.Builder

	state := map[string]any{
		"snapshot":  snap,
		"signals":   signals,
		"consensus": consensusLine(signals),
	}
	stateJSON, _ := json.MarshalIndent(state, "", "  ")

	b.WriteString("Please analyze this forex market data and make a trading decision.\n\n")
	b.WriteString("MARKET DATA:\n")
	b.Write(stateJSON)
	b.WriteString("\n\nRECENT TRADE HISTORY:\n")
	if len(recent) == 0 {
		b.WriteString("No previous trades\n")
	}
	for i, rec := range recent {
		pl := "unresolved"
		if rec.ProfitLoss != nil {
			pl = fmt.Sprintf("%.2f", *rec.ProfitLoss)
		}
		b.WriteString(fmt.Sprintf("Trade %d: %s %s at %s - P/L: %s\n",
			i+1,
			strings.ToUpper(string(rec.Decision.Action)),
			rec.Decision.Direction,
			rec.Timestamp.Format(time.RFC3339),
			pl,
		))
	}

	if len(extra) > 0 {
		b.WriteString("\nMARKET CONTEXT:\n")
		for _, line := range extra {
			b.WriteString("- " + line + "\n")
		}
	}

	b.WriteString("\nDecide whether to BUY, SELL, or HOLD. Focus on risk management, only trade with clear signals, default to HOLD if uncertain.\n")
	b.WriteString(`Respond with a JSON object: {"action":"buy|sell|hold","confidence":0.0-1.0,"reasoning":["brief explanation"]}`)
	return b.String()
}

func consensusLine(signals []types.StrategySignal) string {
	buys, sells := 0, 0
	for _, s := range signals {
		switch s.Direction {
		case types.Buy:
			buys++
		case types.Sell:
			sells++
		}
	}
	return fmt.Sprintf("%d buy signals, %d sell signals", buys, sells)
}

// recentWindow bounds how much history travels to the oracle.
const recentWindow = 5

// TailRecords returns up to the last recentWindow records.
func TailRecords(recent []types.TradeRecord) []types.TradeRecord {
	if len(recent) > recentWindow {
		return recent[len(recent)-recentWindow:]
	}
	return recent
}

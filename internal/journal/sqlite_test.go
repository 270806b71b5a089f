package journal

import (
	"path/filepath"
	"testing"
	"time"

	"forex-trading-agent/internal/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndLoadTrades(t *testing.T) {
	j := openTestJournal(t)

	rec := types.TradeRecord{
		ID:         "01J0000000000000000000A001",
		Timestamp:  time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		Instrument: "EUR_USD",
		Decision: types.Decision{
			Action:                 types.ActionOpen,
			Direction:              types.Buy,
			Confidence:             0.8,
			Reasoning:              []string{"oversold"},
			PositionSizeMultiplier: 1.0,
		},
		Execution: &types.ExecutionResult{Success: true, OrderID: "ORD-1", FillPrice: 1.0845},
	}
	if err := j.RecordTrade(rec); err != nil {
		t.Fatalf("RecordTrade failed: %v", err)
	}

	loaded, err := j.RecentTrades(10)
	if err != nil {
		t.Fatalf("RecentTrades failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(loaded))
	}

	got := loaded[0]
	if got.ID != rec.ID || got.Instrument != "EUR_USD" {
		t.Errorf("Unexpected record identity: %+v", got)
	}
	if got.Decision.Direction != types.Buy || got.Decision.Confidence != 0.8 {
		t.Errorf("Decision not round-tripped: %+v", got.Decision)
	}
	if got.Execution == nil || got.Execution.OrderID != "ORD-1" {
		t.Errorf("Execution not round-tripped: %+v", got.Execution)
	}
	if got.Resolved() {
		t.Error("Expected unresolved profit/loss")
	}
}

func TestResolveTrade(t *testing.T) {
	j := openTestJournal(t)

	rec := types.TradeRecord{ID: "a", Timestamp: time.Now().UTC(), Instrument: "EUR_USD"}
	if err := j.RecordTrade(rec); err != nil {
		t.Fatalf("RecordTrade failed: %v", err)
	}
	if err := j.ResolveTrade("a", -12.5); err != nil {
		t.Fatalf("ResolveTrade failed: %v", err)
	}

	loaded, err := j.RecentTrades(10)
	if err != nil {
		t.Fatalf("RecentTrades failed: %v", err)
	}
	if !loaded[0].Resolved() || *loaded[0].ProfitLoss != -12.5 {
		t.Errorf("Expected resolved at -12.5, got %v", loaded[0].ProfitLoss)
	}
}

func TestRecentTradesOrderAndLimit(t *testing.T) {
	j := openTestJournal(t)

	// ULIDs sort lexically by creation time; mimic that with ordered ids.
	for _, id := range []string{"a", "b", "c"} {
		rec := types.TradeRecord{ID: id, Timestamp: time.Now().UTC(), Instrument: "EUR_USD"}
		if err := j.RecordTrade(rec); err != nil {
			t.Fatalf("RecordTrade failed: %v", err)
		}
	}

	loaded, err := j.RecentTrades(2)
	if err != nil {
		t.Fatalf("RecentTrades failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(loaded))
	}
	if loaded[0].ID != "b" || loaded[1].ID != "c" {
		t.Errorf("Expected oldest-first [b c], got [%s %s]", loaded[0].ID, loaded[1].ID)
	}
}

func TestRunningFlag(t *testing.T) {
	j := openTestJournal(t)

	running, err := j.WasRunning()
	if err != nil {
		t.Fatalf("WasRunning failed: %v", err)
	}
	if running {
		t.Error("Expected not running before first set")
	}

	if err := j.SetRunning(true); err != nil {
		t.Fatalf("SetRunning failed: %v", err)
	}
	if running, _ = j.WasRunning(); !running {
		t.Error("Expected running flag set")
	}

	if err := j.SetRunning(false); err != nil {
		t.Fatalf("SetRunning failed: %v", err)
	}
	if running, _ = j.WasRunning(); running {
		t.Error("Expected running flag cleared")
	}
}

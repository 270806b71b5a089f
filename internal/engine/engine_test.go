package engine

import (
	"context"
	"errors"
	"testing"

	"forex-trading-agent/internal/perf"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/types"
)

type fakeCapturer struct {
	err error
}

func (f *fakeCapturer) Capture(ctx context.Context) (types.Image, error) {
	if f.err != nil {
		return types.Image{}, f.err
	}
	return types.Image{Base64: "aW1n", Format: "png"}, nil
}

type fakeParser struct {
	elements []types.ParsedElement
	err      error
}

func (f *fakeParser) Parse(ctx context.Context, img types.Image) ([]types.ParsedElement, error) {
	return f.elements, f.err
}

type fakeDecider struct {
	decision types.Decision
	err      error
	calls    int
}

func (f *fakeDecider) Decide(ctx context.Context, snap types.MarketSnapshot, signals []types.StrategySignal, recent []types.TradeRecord) (types.Decision, error) {
	f.calls++
	if f.err != nil {
		return types.Decision{}, f.err
	}
	return f.decision, nil
}

type fakeExecutor struct {
	result    types.ExecutionResult
	err       error
	calls     int
	lastOrder types.OrderRequest

	closed        []types.ClosedPosition
	lastMarkPrice float64
}

func (f *fakeExecutor) Execute(ctx context.Context, order types.OrderRequest) (types.ExecutionResult, error) {
	f.calls++
	f.lastOrder = order
	if f.err != nil {
		return types.ExecutionResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeExecutor) ClosedPositions(ctx context.Context, markPrice float64) ([]types.ClosedPosition, error) {
	f.lastMarkPrice = markPrice
	closed := f.closed
	f.closed = nil
	return closed, nil
}

type fakeJournal struct {
	records  []types.TradeRecord
	resolved map[string]float64
}

func (f *fakeJournal) RecordTrade(rec types.TradeRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeJournal) ResolveTrade(id string, pl float64) error {
	if f.resolved == nil {
		f.resolved = map[string]float64{}
	}
	f.resolved[id] = pl
	return nil
}

func engineConfig() *store.Config {
	cfg := &store.Config{
		Mode:               "DRY_RUN",
		Instrument:         "EUR_USD",
		CallTimeoutSeconds: 5,
	}
	cfg.Lot.Size = 0.1
	cfg.Risk.VolatilityIndicator = "atr"
	cfg.Risk.HighVolatilityThreshold = 0.006
	cfg.Risk.DefaultStopPips = 20
	cfg.Risk.RewardRiskRatio = 1.5
	cfg.Risk.AccountBalance = 10000
	cfg.Risk.PerTradeRiskPct = 2
	return cfg
}

func priceElements() []types.ParsedElement {
	return []types.ParsedElement{
		{Kind: types.ElementText, Text: "Current Price: 1.0845"},
		{Kind: types.ElementText, Text: "RSI: 25"},
	}
}

func TestCycleInsufficientData(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	decider := &fakeDecider{}
	executor := &fakeExecutor{}
	parser := &fakeParser{elements: []types.ParsedElement{
		{Kind: types.ElementText, Text: "some chart chrome"},
	}}
	eng := New(engineConfig(), &fakeCapturer{}, parser, decider, executor, perf.NewTracker(100), nil)

	res, err := eng.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Status != types.CycleInsufficientData {
		t.Errorf("Expected insufficient_data status, got %s", res.Status)
	}
	if decider.calls != 0 {
		t.Error("Expected oracle not consulted without price data")
	}
	if executor.calls != 0 {
		t.Error("Expected no order dispatched")
	}
}

func TestCycleHoldDecision(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	decider := &fakeDecider{decision: types.HoldDecision("nothing to do")}
	executor := &fakeExecutor{}
	tracker := perf.NewTracker(100)
	jrnl := &fakeJournal{}
	eng := New(engineConfig(), &fakeCapturer{}, &fakeParser{elements: priceElements()}, decider, executor, tracker, jrnl)

	res, err := eng.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Status != types.CycleHeld {
		t.Errorf("Expected held status, got %s", res.Status)
	}
	if executor.calls != 0 {
		t.Error("Expected no order on hold")
	}
	if tracker.Len() != 0 {
		t.Error("Expected held cycle to leave history untouched")
	}
	if len(jrnl.records) != 0 {
		t.Error("Expected no journal write on hold")
	}
}

func TestCycleOpenTrade(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	decider := &fakeDecider{decision: types.Decision{
		Action:                 types.ActionOpen,
		Direction:              types.Buy,
		Confidence:             0.8,
		PositionSizeMultiplier: 1.0,
	}}
	executor := &fakeExecutor{result: types.ExecutionResult{Success: true, OrderID: "ORD-1", FillPrice: 1.0845}}
	tracker := perf.NewTracker(100)
	jrnl := &fakeJournal{}
	eng := New(engineConfig(), &fakeCapturer{}, &fakeParser{elements: priceElements()}, decider, executor, tracker, jrnl)

	res, err := eng.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Status != types.CycleTraded {
		t.Errorf("Expected traded status, got %s", res.Status)
	}
	if executor.calls != 1 {
		t.Fatalf("Expected one order, got %d", executor.calls)
	}

	order := executor.lastOrder
	if order.Instrument != "EUR_USD" || order.Direction != types.Buy {
		t.Errorf("Unexpected order: %+v", order)
	}
	if order.Lots != 0.1 {
		t.Errorf("Expected base lot size 0.1, got %f", order.Lots)
	}
	if order.Price != 1.0845 {
		t.Errorf("Expected observed price on the order, got %f", order.Price)
	}
	if order.StopLossDistance == nil {
		t.Error("Expected stop loss filled by risk overlay")
	}

	if tracker.Len() != 1 {
		t.Fatalf("Expected one history record, got %d", tracker.Len())
	}
	if len(jrnl.records) != 1 {
		t.Fatalf("Expected one journal record, got %d", len(jrnl.records))
	}
	rec := jrnl.records[0]
	if rec.ID == "" {
		t.Error("Expected generated trade id")
	}
	if rec.Execution == nil || rec.Execution.OrderID != "ORD-1" {
		t.Errorf("Expected execution attached, got %+v", rec.Execution)
	}
	if rec.Resolved() {
		t.Error("Expected trade unresolved at open")
	}
}

func TestCycleResolvesClosedPositions(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	decider := &fakeDecider{decision: types.Decision{
		Action:                 types.ActionOpen,
		Direction:              types.Buy,
		Confidence:             0.8,
		PositionSizeMultiplier: 1.0,
	}}
	executor := &fakeExecutor{result: types.ExecutionResult{Success: true, OrderID: "ORD-1"}}
	tracker := perf.NewTracker(100)
	jrnl := &fakeJournal{}
	eng := New(engineConfig(), &fakeCapturer{}, &fakeParser{elements: priceElements()}, decider, executor, tracker, jrnl)

	if _, err := eng.Cycle(context.Background()); err != nil {
		t.Fatalf("First cycle failed: %v", err)
	}
	if snap := tracker.Snapshot(); snap.TotalTrades != 0 {
		t.Fatalf("Expected trade unresolved after open, got %d resolved", snap.TotalTrades)
	}
	if executor.lastMarkPrice != 1.0845 {
		t.Errorf("Expected current price passed to the closed-positions poll, got %f", executor.lastMarkPrice)
	}

	// The venue settles the position before the next cycle.
	executor.closed = []types.ClosedPosition{{OrderID: "ORD-1", ProfitLoss: 12.5}}
	decider.decision = types.HoldDecision("watching")

	if _, err := eng.Cycle(context.Background()); err != nil {
		t.Fatalf("Second cycle failed: %v", err)
	}

	snap := tracker.Snapshot()
	if snap.TotalTrades != 1 {
		t.Fatalf("Expected 1 resolved trade, got %d", snap.TotalTrades)
	}
	if snap.WinRate != 100 {
		t.Errorf("Expected win rate 100, got %f", snap.WinRate)
	}
	if snap.CumulativeProfitLoss != 12.5 {
		t.Errorf("Expected cumulative P/L 12.5, got %f", snap.CumulativeProfitLoss)
	}

	tradeID := jrnl.records[0].ID
	if pl, ok := jrnl.resolved[tradeID]; !ok || pl != 12.5 {
		t.Errorf("Expected journal resolution at 12.5 for %s, got %v", tradeID, jrnl.resolved)
	}
}

func TestCycleResolutionIgnoresUnknownOrders(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	executor := &fakeExecutor{closed: []types.ClosedPosition{{OrderID: "STALE-9", ProfitLoss: -3}}}
	tracker := perf.NewTracker(100)
	eng := New(engineConfig(), &fakeCapturer{}, &fakeParser{elements: priceElements()}, &fakeDecider{decision: types.HoldDecision("quiet")}, executor, tracker, &fakeJournal{})

	if _, err := eng.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	if snap := tracker.Snapshot(); snap.TotalTrades != 0 {
		t.Errorf("Expected no resolution for unknown order, got %d", snap.TotalTrades)
	}
}

func TestCycleLotSizeCappedByRisk(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	cfg := engineConfig()
	cfg.Lot.Size = 5.0
	decider := &fakeDecider{decision: types.Decision{
		Action:                 types.ActionOpen,
		Direction:              types.Buy,
		Confidence:             0.9,
		PositionSizeMultiplier: 1.0,
	}}
	executor := &fakeExecutor{result: types.ExecutionResult{Success: true, OrderID: "ORD-1"}}
	eng := New(cfg, &fakeCapturer{}, &fakeParser{elements: priceElements()}, decider, executor, perf.NewTracker(100), nil)

	if _, err := eng.Cycle(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// 2% of 10000 over a 20 pip stop allows 1.0 lots at most.
	if executor.lastOrder.Lots != 1.0 {
		t.Errorf("Expected lots capped at 1.0, got %f", executor.lastOrder.Lots)
	}
}

func TestCycleCaptureErrorPropagates(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	capErr := errors.New("capture service unreachable")
	eng := New(engineConfig(), &fakeCapturer{err: capErr}, &fakeParser{}, &fakeDecider{}, &fakeExecutor{}, perf.NewTracker(100), nil)

	if _, err := eng.Cycle(context.Background()); !errors.Is(err, capErr) {
		t.Errorf("Expected capture error propagated, got %v", err)
	}
}

func TestCycleOracleErrorPropagates(t *testing.T) {
	t.Setenv("AGENT_LOG_DIR", t.TempDir())
	oracleErr := errors.New("oracle timeout")
	executor := &fakeExecutor{}
	eng := New(engineConfig(), &fakeCapturer{}, &fakeParser{elements: priceElements()}, &fakeDecider{err: oracleErr}, executor, perf.NewTracker(100), nil)

	if _, err := eng.Cycle(context.Background()); !errors.Is(err, oracleErr) {
		t.Errorf("Expected oracle error propagated, got %v", err)
	}
	if executor.calls != 0 {
		t.Error("Expected no order after oracle failure")
	}
}

package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"forex-trading-agent/internal/id"
	"forex-trading-agent/internal/interfaces"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/market"
	"forex-trading-agent/internal/perf"
	"forex-trading-agent/internal/risk"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/strategy"
	"forex-trading-agent/internal/trace"
	"forex-trading-agent/internal/tradelog"
	"forex-trading-agent/internal/types"
)

const forexPip = 0.0001

// Engine runs one full cycle: capture, parse, extract, validate, aggregate,
// decide, risk-adjust, execute, record. External calls are sequential and
// each is bounded by the configured timeout; a failed call aborts the cycle
// with no retry and the error propagates to the circuit breaker.
type Engine struct {
	cfg        *store.Config
	capturer   interfaces.Capturer
	parser     interfaces.Parser
	extractor  *market.Extractor
	aggregator *strategy.Aggregator
	decider    interfaces.Decider
	executor   interfaces.Executor
	riskmgr    *risk.Manager
	tracker    *perf.Tracker
	journal    TradeJournal

	callTimeout time.Duration
}

// TradeJournal is the persistence surface the engine writes executed trades
// and their resolved outcomes to. Nil disables persistence (tests).
type TradeJournal interface {
	RecordTrade(rec types.TradeRecord) error
	ResolveTrade(id string, pl float64) error
}

func New(cfg *store.Config, capturer interfaces.Capturer, parser interfaces.Parser, decider interfaces.Decider, executor interfaces.Executor, tracker *perf.Tracker, jrnl TradeJournal) *Engine {
	return &Engine{
		cfg:         cfg,
		capturer:    capturer,
		parser:      parser,
		extractor:   market.NewExtractor(cfg.Instrument),
		aggregator:  strategy.NewAggregator(),
		decider:     decider,
		executor:    executor,
		riskmgr:     risk.NewManager(cfg),
		tracker:     tracker,
		journal:     jrnl,
		callTimeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second,
	}
}

func (e *Engine) Cycle(ctx context.Context) (*types.CycleResult, error) {
	logger.Debug(ctx, "Starting cycle", "instrument", e.cfg.Instrument)

	img, err := e.capture(ctx)
	if err != nil {
		return nil, err
	}

	elements, err := e.parse(ctx, img)
	if err != nil {
		return nil, err
	}

	snap := e.extractor.Extract(ctx, elements)
	logger.Debug(ctx, "Snapshot extracted",
		"instrument", snap.Instrument,
		"indicators", len(snap.Indicators),
		"price_levels", len(snap.PriceLevels),
		"patterns", len(snap.Patterns),
		"elements", snap.ElementCount,
	)

	result := &types.CycleResult{
		Instrument: snap.Instrument,
		Snapshot:   &snap,
		Time:       snap.ObservedAt,
	}

	// Validation failure is a deliberate early return, not a fault: the
	// oracle is never consulted without price data.
	if !snap.HasPriceData() {
		logger.Warn(ctx, "Insufficient market data, skipping cycle",
			"instrument", snap.Instrument,
			"elements", snap.ElementCount,
		)
		result.Status = types.CycleInsufficientData
		return result, nil
	}

	e.resolveClosed(ctx, snap)

	signals, consensus := e.aggregator.Aggregate(ctx, snap)
	result.Signals = signals
	result.Consensus = consensus

	decision, err := e.decide(ctx, snap, signals)
	if err != nil {
		return nil, err
	}

	perfSnap := e.tracker.Snapshot()
	adjusted := e.riskmgr.Adjust(ctx, decision, perfSnap, e.tracker.Recent(3), snap)
	result.Decision = &adjusted

	logger.Decision(ctx, snap.Instrument, string(adjusted.Action), string(adjusted.Direction), adjusted.Confidence,
		"multiplier", adjusted.PositionSizeMultiplier,
		"consensus", string(consensus),
	)
	_ = tradelog.AppendDecision(tradelog.DecisionEntry{
		Instrument: snap.Instrument,
		Action:     string(adjusted.Action),
		Direction:  string(adjusted.Direction),
		Confidence: adjusted.Confidence,
		Reasoning:  adjusted.Reasoning,
		Indicators: snap.Indicators,
		Multiplier: adjusted.PositionSizeMultiplier,
	})

	if adjusted.Action != types.ActionOpen {
		result.Status = types.CycleHeld
		return result, nil
	}

	order := types.OrderRequest{
		Instrument:         snap.Instrument,
		Direction:          adjusted.Direction,
		Lots:               e.lotSize(adjusted),
		Price:              snap.PriceLevels["current"],
		StopLossDistance:   adjusted.StopLossDistance,
		TakeProfitDistance: adjusted.TakeProfitDistance,
	}

	execRes, err := e.execute(ctx, order)
	if err != nil {
		return nil, err
	}

	rec := types.TradeRecord{
		ID:         id.New(),
		Timestamp:  time.Now().UTC(),
		Instrument: snap.Instrument,
		Decision:   adjusted,
		Execution:  &execRes,
		ProfitLoss: execRes.RealizedPL,
	}
	e.tracker.Record(rec)
	if e.journal != nil {
		if err := e.journal.RecordTrade(rec); err != nil {
			logger.Warn(ctx, "Failed to persist trade record", "trade_id", rec.ID, "error", err)
		}
	}
	_ = tradelog.Append(tradelog.Entry{
		Instrument: snap.Instrument,
		Direction:  string(adjusted.Direction),
		Lots:       order.Lots,
		OrderID:    execRes.OrderID,
		Confidence: adjusted.Confidence,
		Reasoning:  adjusted.Reasoning,
	})

	result.Status = types.CycleTraded
	result.Execution = &execRes
	return result, nil
}

// resolveClosed polls the venue for settled positions and fills their
// realized profit/loss into the history and journal, so the risk rules see
// every outcome by the next decision. Resolution failures never fail the
// cycle.
func (e *Engine) resolveClosed(ctx context.Context, snap types.MarketSnapshot) {
	pollCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	closed, err := e.executor.ClosedPositions(pollCtx, snap.PriceLevels["current"])
	if err != nil {
		logger.Warn(ctx, "Failed to poll closed positions", "error", err)
		return
	}
	if len(closed) == 0 {
		return
	}

	byOrder := make(map[string]float64, len(closed))
	for _, cp := range closed {
		byOrder[cp.OrderID] = cp.ProfitLoss
	}
	for _, rec := range e.tracker.History() {
		if rec.Resolved() || rec.Execution == nil {
			continue
		}
		pl, ok := byOrder[rec.Execution.OrderID]
		if !ok {
			continue
		}
		e.tracker.Resolve(rec.ID, pl)
		if e.journal != nil {
			if err := e.journal.ResolveTrade(rec.ID, pl); err != nil {
				logger.Warn(ctx, "Failed to persist trade resolution", "trade_id", rec.ID, "error", err)
			}
		}
		logger.Info(ctx, "Trade resolved",
			"trade_id", rec.ID,
			"order_id", rec.Execution.OrderID,
			"profit_loss", pl,
		)
	}
}

func (e *Engine) capture(ctx context.Context) (types.Image, error) {
	ctx, span := trace.StartSpan(ctx, "perception.capture")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	img, err := e.capturer.Capture(ctx)
	if err != nil {
		return types.Image{}, fmt.Errorf("perception: %w", err)
	}
	return img, nil
}

func (e *Engine) parse(ctx context.Context, img types.Image) ([]types.ParsedElement, error) {
	ctx, span := trace.StartSpan(ctx, "vision.parse")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	elements, err := e.parser.Parse(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("vision parse: %w", err)
	}
	return elements, nil
}

func (e *Engine) decide(ctx context.Context, snap types.MarketSnapshot, signals []types.StrategySignal) (types.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	decision, err := e.decider.Decide(ctx, snap, signals, e.tracker.Recent(5))
	if err != nil {
		return types.Decision{}, fmt.Errorf("oracle: %w", err)
	}
	return decision, nil
}

func (e *Engine) execute(ctx context.Context, order types.OrderRequest) (types.ExecutionResult, error) {
	ctx, span := trace.StartSpan(ctx, "executor.execute", trace.WithInstrument(order.Instrument))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	res, err := e.executor.Execute(ctx, order)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	return res, nil
}

// lotSize scales the configured base lot by the risk multiplier and caps it
// at the risk-based maximum for the account.
func (e *Engine) lotSize(d types.Decision) float64 {
	lots := e.cfg.Lot.Size * d.PositionSizeMultiplier

	stopPips := e.cfg.Risk.DefaultStopPips
	if d.StopLossDistance != nil {
		stopPips = *d.StopLossDistance / forexPip
	}
	maxLots := risk.PositionSize(e.cfg.Risk.AccountBalance, e.cfg.Risk.PerTradeRiskPct, stopPips, e.cfg.Instrument)
	if maxLots > 0 && lots > maxLots {
		lots = maxLots
	}
	return math.Round(lots*100) / 100
}

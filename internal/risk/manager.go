package risk

import (
	"context"
	"fmt"

	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/types"
)

const pip = 0.0001

// Manager overlays the risk policy on an oracle decision. Rules are
// cumulative multipliers applied in fixed order; the clamp runs last, once.
// Every rule that fires appends a reason to the decision for auditability.
type Manager struct {
	volIndicator    string
	volThreshold    float64
	defaultStopPips float64
	rewardRisk      float64
}

func NewManager(cfg *store.Config) *Manager {
	return &Manager{
		volIndicator:    cfg.Risk.VolatilityIndicator,
		volThreshold:    cfg.Risk.HighVolatilityThreshold,
		defaultStopPips: cfg.Risk.DefaultStopPips,
		rewardRisk:      cfg.Risk.RewardRiskRatio,
	}
}

// Adjust scales the position size by recent performance, may veto the trade
// outright, and fills stop/take-profit distances the oracle left unset.
// Hold decisions pass through unchanged.
func (m *Manager) Adjust(ctx context.Context, d types.Decision, perfSnap types.PerformanceSnapshot, recent []types.TradeRecord, snap types.MarketSnapshot) types.Decision {
	if d.Action != types.ActionOpen {
		return d
	}
	if d.PositionSizeMultiplier <= 0 {
		d.PositionSizeMultiplier = 1.0
	}

	if perfSnap.TotalTrades > 10 && perfSnap.WinRate < 40 {
		d.PositionSizeMultiplier *= 0.5
		d.AddReason(fmt.Sprintf("risk: win rate %.1f%% below 40%%, position size halved", perfSnap.WinRate))
		logger.Risk(ctx, snap.Instrument, "LOW_WIN_RATE", "win_rate", perfSnap.WinRate, "total_trades", perfSnap.TotalTrades)
	} else if perfSnap.TotalTrades > 10 && perfSnap.WinRate > 60 {
		d.PositionSizeMultiplier *= 1.2
		d.AddReason(fmt.Sprintf("risk: win rate %.1f%% above 60%%, position size increased", perfSnap.WinRate))
	}

	if allLosses(recent, 3) {
		d.PositionSizeMultiplier *= 0.5
		d.AddReason("risk: three consecutive losses, position size halved")
		logger.Risk(ctx, snap.Instrument, "LOSING_STREAK", "losses", 3, "confidence", d.Confidence)
		if d.Confidence < 0.7 {
			d.Action = types.ActionHold
			d.Direction = types.None
			d.AddReason(fmt.Sprintf("risk: confidence %.2f too low after three losses, trade aborted", d.Confidence))
			logger.Risk(ctx, snap.Instrument, "TRADE_VETOED", "confidence", d.Confidence)
		}
	}

	if vol, ok := snap.Indicators[m.volIndicator]; ok && vol > m.volThreshold {
		d.PositionSizeMultiplier *= 0.7
		d.AddReason(fmt.Sprintf("risk: %s %.5f above high-volatility threshold, position size reduced", m.volIndicator, vol))
	}

	if d.PositionSizeMultiplier < 0.1 {
		d.PositionSizeMultiplier = 0.1
	}
	if d.PositionSizeMultiplier > 2.0 {
		d.PositionSizeMultiplier = 2.0
	}

	if d.Action == types.ActionOpen {
		m.fillStops(&d)
	}
	return d
}

// fillStops selects stop-loss/take-profit distances when the oracle left
// them unset: the configured default stop, and a take-profit derived from
// the reward:risk ratio.
func (m *Manager) fillStops(d *types.Decision) {
	if d.StopLossDistance == nil {
		sl := m.defaultStopPips * pip
		d.StopLossDistance = &sl
	}
	if d.TakeProfitDistance == nil {
		tp := *d.StopLossDistance * m.rewardRisk
		d.TakeProfitDistance = &tp
	}
}

// allLosses reports whether the last n records are all resolved losses.
// Fewer than n records in history means no streak.
func allLosses(recent []types.TradeRecord, n int) bool {
	if len(recent) < n {
		return false
	}
	for _, rec := range recent[len(recent)-n:] {
		if !rec.Loss() {
			return false
		}
	}
	return true
}

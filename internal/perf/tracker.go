package perf

import (
	"sync"

	"forex-trading-agent/internal/types"
)

// Tracker owns the bounded trade history and derives performance metrics
// from it. All mutation happens from the cycle-execution context; the lock
// exists so reporting paths can read a consistent snapshot.
type Tracker struct {
	mu       sync.RWMutex
	capacity int
	history  []types.TradeRecord
}

func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = 100
	}
	return &Tracker{capacity: capacity}
}

// Record appends a trade, evicting the oldest record beyond capacity.
func (t *Tracker) Record(rec types.TradeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, rec)
	if len(t.history) > t.capacity {
		t.history = t.history[len(t.history)-t.capacity:]
	}
}

// Resolve fills in the realized profit/loss of an earlier trade, searching
// from the tail since resolutions arrive for recent trades.
func (t *Tracker) Resolve(id string, pl float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.history) - 1; i >= 0; i-- {
		if t.history[i].ID == id {
			v := pl
			t.history[i].ProfitLoss = &v
			return true
		}
	}
	return false
}

// Restore replaces the history with persisted records, keeping only the most
// recent capacity entries. Used once at startup.
func (t *Tracker) Restore(records []types.TradeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(records) > t.capacity {
		records = records[len(records)-t.capacity:]
	}
	t.history = append([]types.TradeRecord(nil), records...)
}

// Recent returns copies of the last n trades, oldest first.
func (t *Tracker) Recent(n int) []types.TradeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n > len(t.history) {
		n = len(t.history)
	}
	out := make([]types.TradeRecord, n)
	copy(out, t.history[len(t.history)-n:])
	return out
}

// History returns a copy of the full trade history.
func (t *Tracker) History() []types.TradeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.TradeRecord, len(t.history))
	copy(out, t.history)
	return out
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.history)
}

// Snapshot recomputes the derived metrics from the history. Trades with
// unresolved profit/loss are excluded from the win-rate denominator until
// resolved. Win rate is 0 when there are no resolved trades.
func (t *Tracker) Snapshot() types.PerformanceSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var snap types.PerformanceSnapshot
	wins := 0
	equity, peak := 0.0, 0.0
	for _, rec := range t.history {
		if !rec.Resolved() {
			continue
		}
		snap.TotalTrades++
		pl := *rec.ProfitLoss
		snap.CumulativeProfitLoss += pl
		if pl > 0 {
			wins++
		}
		equity += pl
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > snap.MaxDrawdown {
			snap.MaxDrawdown = dd
		}
	}
	if snap.TotalTrades > 0 {
		snap.WinRate = float64(wins) / float64(snap.TotalTrades) * 100
	}

	// Consecutive losses count from the tail, stopping at the first record
	// that is not a resolved loss.
	for i := len(t.history) - 1; i >= 0; i-- {
		if !t.history[i].Loss() {
			break
		}
		snap.ConsecutiveLosses++
	}

	return snap
}

package types

import "time"

// ElementKind distinguishes the two element classes the vision parser emits.
type ElementKind string

const (
	ElementText ElementKind = "text"
	ElementIcon ElementKind = "icon"
)

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ParsedElement is one labelled element from the vision parser. Read-only
// input to the snapshot extractor.
type ParsedElement struct {
	Text        string      `json:"text"`
	Kind        ElementKind `json:"kind"`
	BoundingBox *Rect       `json:"bounding_box,omitempty"`
}

// Image is an encoded chart screenshot as captured from the perception source.
type Image struct {
	Base64 string `json:"base64"`
	Format string `json:"format,omitempty"`
}

// MarketSnapshot is the structured market state derived once per cycle.
// Immutable after extraction.
type MarketSnapshot struct {
	Instrument   string             `json:"instrument"`
	ObservedAt   time.Time          `json:"observed_at"`
	Indicators   map[string]float64 `json:"indicators"`
	PriceLevels  map[string]float64 `json:"price_levels"`
	Patterns     map[string]bool    `json:"patterns"`
	ElementCount int                `json:"element_count"`
}

// HasPriceData reports whether the snapshot carries at least one price level,
// the minimum for a cycle to proceed past validation.
func (s MarketSnapshot) HasPriceData() bool { return len(s.PriceLevels) > 0 }

func (s MarketSnapshot) HasPattern(name string) bool { return s.Patterns[name] }

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
	None Direction = "none"
)

type Action string

const (
	ActionOpen Action = "open"
	ActionHold Action = "hold"
)

// StrategySignal is a single strategy's directional opinion for one cycle.
type StrategySignal struct {
	Strategy  string    `json:"strategy"`
	Direction Direction `json:"direction"`
	Strength  float64   `json:"strength"`
}

// Decision is the oracle's proposal after boundary normalization. The risk
// manager mutates it in place; the oracle never touches it after creation.
type Decision struct {
	Action                 Action    `json:"action"`
	Direction              Direction `json:"direction"`
	Confidence             float64   `json:"confidence"`
	Reasoning              []string  `json:"reasoning"`
	StopLossDistance       *float64  `json:"stop_loss_distance,omitempty"`
	TakeProfitDistance     *float64  `json:"take_profit_distance,omitempty"`
	PositionSizeMultiplier float64   `json:"position_size_multiplier"`
}

// HoldDecision returns the safe default used whenever the oracle output
// cannot be trusted.
func HoldDecision(reasons ...string) Decision {
	return Decision{
		Action:                 ActionHold,
		Direction:              None,
		Confidence:             0,
		Reasoning:              reasons,
		PositionSizeMultiplier: 1.0,
	}
}

func (d *Decision) AddReason(r string) { d.Reasoning = append(d.Reasoning, r) }

// OrderRequest is what the agent sends to the execution venue. Price is the
// observed market price at decision time, the venue's fill reference.
type OrderRequest struct {
	Instrument         string    `json:"instrument"`
	Direction          Direction `json:"direction"`
	Lots               float64   `json:"lots"`
	Price              float64   `json:"price,omitempty"`
	StopLossDistance   *float64  `json:"stop_loss_distance,omitempty"`
	TakeProfitDistance *float64  `json:"take_profit_distance,omitempty"`
}

// ExecutionResult is the venue's report for one dispatched order.
type ExecutionResult struct {
	Success    bool     `json:"success"`
	OrderID    string   `json:"order_id,omitempty"`
	FillPrice  float64  `json:"fill_price,omitempty"`
	RealizedPL *float64 `json:"realized_pl,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// ClosedPosition is the venue's report of a settled position, keyed by the
// order that opened it.
type ClosedPosition struct {
	OrderID    string  `json:"order_id"`
	ProfitLoss float64 `json:"profit_loss"`
}

// TradeRecord is one executed decision plus its (possibly later-resolved)
// outcome. Owned by the performance tracker.
type TradeRecord struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	Instrument string           `json:"instrument"`
	Decision   Decision         `json:"decision"`
	Execution  *ExecutionResult `json:"execution,omitempty"`
	ProfitLoss *float64         `json:"profit_loss,omitempty"`
}

func (t TradeRecord) Resolved() bool { return t.ProfitLoss != nil }
func (t TradeRecord) Win() bool      { return t.ProfitLoss != nil && *t.ProfitLoss > 0 }
func (t TradeRecord) Loss() bool     { return t.ProfitLoss != nil && *t.ProfitLoss <= 0 }

// PerformanceSnapshot is derived from the trade history each cycle; it is
// never persisted independently of its source records.
type PerformanceSnapshot struct {
	WinRate              float64 `json:"win_rate"`
	TotalTrades          int     `json:"total_trades"`
	CumulativeProfitLoss float64 `json:"cumulative_profit_loss"`
	ConsecutiveLosses    int     `json:"consecutive_losses"`
	MaxDrawdown          float64 `json:"max_drawdown"`
}

type AgentState string

const (
	StateIdle     AgentState = "idle"
	StateRunning  AgentState = "running"
	StateStopping AgentState = "stopping"
)

type CycleStatus string

const (
	CycleTraded           CycleStatus = "traded"
	CycleHeld             CycleStatus = "held"
	CycleInsufficientData CycleStatus = "insufficient_data"
)

// CycleResult summarizes one full loop iteration.
type CycleResult struct {
	Instrument string           `json:"instrument"`
	Status     CycleStatus      `json:"status"`
	Snapshot   *MarketSnapshot  `json:"snapshot,omitempty"`
	Signals    []StrategySignal `json:"signals,omitempty"`
	Consensus  Direction        `json:"consensus,omitempty"`
	Decision   *Decision        `json:"decision,omitempty"`
	Execution  *ExecutionResult `json:"execution,omitempty"`
	Time       time.Time        `json:"time"`
}

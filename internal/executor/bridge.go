package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forex-trading-agent/internal/api"
	"forex-trading-agent/internal/id"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/risk"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/types"
)

const pip = 0.0001

// Bridge submits orders to the trade execution endpoint. In DRY_RUN mode
// orders are simulated locally and never leave the process: fills happen at
// the order's reference price and positions settle against the next observed
// price.
type Bridge struct {
	mode   string
	client *api.Client

	mu   sync.Mutex
	open []simPosition
}

// simPosition is one open DRY_RUN position awaiting settlement.
type simPosition struct {
	orderID    string
	instrument string
	direction  types.Direction
	lots       float64
	entry      float64
}

func NewBridge(cfg *store.Config) *Bridge {
	return &Bridge{
		mode: cfg.Mode,
		client: api.NewClient(
			api.WithBaseURL(cfg.Executor.URL),
			api.WithTimeout(time.Duration(cfg.CallTimeoutSeconds)*time.Second),
			api.WithLogging(true),
		),
	}
}

type orderResponse struct {
	Success    bool     `json:"success"`
	OrderID    string   `json:"order_id"`
	FillPrice  float64  `json:"fill_price"`
	RealizedPL *float64 `json:"realized_pl"`
	Message    string   `json:"message"`
	ErrorCode  string   `json:"error_code"`
}

func (b *Bridge) Execute(ctx context.Context, order types.OrderRequest) (types.ExecutionResult, error) {
	if b.mode == "DRY_RUN" {
		res := types.ExecutionResult{
			Success:   true,
			OrderID:   "DRY-" + id.New(),
			FillPrice: order.Price,
			Message:   "simulated order",
		}
		b.mu.Lock()
		b.open = append(b.open, simPosition{
			orderID:    res.OrderID,
			instrument: order.Instrument,
			direction:  order.Direction,
			lots:       order.Lots,
			entry:      order.Price,
		})
		b.mu.Unlock()
		logger.Trade(ctx, order.Instrument, string(order.Direction), order.Lots, res.OrderID, "mode", "DRY_RUN")
		return res, nil
	}

	var resp orderResponse
	if err := b.client.PostJSON(ctx, "/orders", order, &resp); err != nil {
		return types.ExecutionResult{}, fmt.Errorf("execute order: %w", err)
	}

	if !resp.Success {
		if err := fatalFromCode(resp.ErrorCode); err != nil {
			return types.ExecutionResult{}, fmt.Errorf("%w: %s", err, resp.Message)
		}
		return types.ExecutionResult{}, fmt.Errorf("order rejected: %s", resp.Message)
	}

	logger.Trade(ctx, order.Instrument, string(order.Direction), order.Lots, resp.OrderID, "fill_price", resp.FillPrice)
	return types.ExecutionResult{
		Success:    true,
		OrderID:    resp.OrderID,
		FillPrice:  resp.FillPrice,
		RealizedPL: resp.RealizedPL,
		Message:    resp.Message,
	}, nil
}

// ClosedPositions reports positions the venue settled since the last poll.
// The engine feeds each realized profit/loss back into the performance
// history.
func (b *Bridge) ClosedPositions(ctx context.Context, markPrice float64) ([]types.ClosedPosition, error) {
	if b.mode == "DRY_RUN" {
		return b.settleSimulated(ctx, markPrice), nil
	}

	var resp struct {
		Positions []types.ClosedPosition `json:"positions"`
	}
	if err := b.client.GetJSON(ctx, "/positions/closed", &resp); err != nil {
		return nil, fmt.Errorf("poll closed positions: %w", err)
	}
	return resp.Positions, nil
}

// settleSimulated closes every open DRY_RUN position at the given price, so
// each simulated position is held for one polling interval. Positions stay
// open until a current price is observed.
func (b *Bridge) settleSimulated(ctx context.Context, markPrice float64) []types.ClosedPosition {
	if markPrice <= 0 {
		return nil
	}

	b.mu.Lock()
	open := b.open
	b.open = nil
	b.mu.Unlock()

	out := make([]types.ClosedPosition, 0, len(open))
	for _, pos := range open {
		var pips float64
		if pos.entry > 0 {
			pips = (markPrice - pos.entry) / pip
			if pos.direction == types.Sell {
				pips = -pips
			}
		}
		pl := pips * risk.PipValue(pos.instrument, pos.lots)
		logger.Debug(ctx, "Simulated position settled",
			"order_id", pos.orderID,
			"entry", pos.entry,
			"exit", markPrice,
			"profit_loss", pl,
		)
		out = append(out, types.ClosedPosition{OrderID: pos.orderID, ProfitLoss: pl})
	}
	return out
}

// fatalFromCode maps venue error codes to the fatal error classes the
// circuit breaker halts on.
func fatalFromCode(code string) error {
	switch code {
	case "INVALID_CREDENTIALS":
		return types.ErrCredentialsInvalid
	case "INSUFFICIENT_BALANCE":
		return types.ErrInsufficientBalance
	case "CONNECTION_LOST":
		return types.ErrConnectivityLost
	}
	return nil
}

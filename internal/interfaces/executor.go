package interfaces

import (
	"context"

	"forex-trading-agent/internal/types"
)

// Executor dispatches orders to the trading venue and reports positions the
// venue has since closed. markPrice is the current observed price; live
// venues ignore it, the DRY_RUN simulation settles against it.
type Executor interface {
	Execute(ctx context.Context, order types.OrderRequest) (types.ExecutionResult, error)
	ClosedPositions(ctx context.Context, markPrice float64) ([]types.ClosedPosition, error)
}

package interfaces

import (
	"context"

	"forex-trading-agent/internal/types"
)

// Engine runs one full perception-to-recording cycle.
type Engine interface {
	Cycle(ctx context.Context) (*types.CycleResult, error)
}

package interfaces

import (
	"context"

	"forex-trading-agent/internal/types"
)

// Capturer obtains a chart screenshot from the perception source.
type Capturer interface {
	Capture(ctx context.Context) (types.Image, error)
}

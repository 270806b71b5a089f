package interfaces

import (
	"context"

	"forex-trading-agent/internal/types"
)

// Parser converts a chart screenshot into labelled elements via the external
// vision service.
type Parser interface {
	Parse(ctx context.Context, img types.Image) ([]types.ParsedElement, error)
}

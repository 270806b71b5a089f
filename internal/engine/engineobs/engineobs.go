package engineobs

import (
	"context"
	"time"

	"forex-trading-agent/internal/interfaces"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/trace"
	"forex-trading-agent/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: eng}
}

func (oe *observableEngine) Cycle(ctx context.Context) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Cycle")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting trading cycle")

	result, err := oe.engine.Cycle(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	fields := []any{
		"instrument", result.Instrument,
		"status", string(result.Status),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if result.Decision != nil {
		fields = append(fields,
			"action", string(result.Decision.Action),
			"confidence", result.Decision.Confidence,
		)
	}
	logger.InfoSkip(ctx, 1, "Trading cycle completed", fields...)

	return result, nil
}

package llm

import (
	"encoding/json"
	"strings"

	"forex-trading-agent/internal/types"
)

// rawDecision is the loosely-typed shape the oracle may return. Everything
// is optional; Normalize converts it into a valid tagged Decision.
type rawDecision struct {
	Action                 string           `json:"action"`
	Direction              string           `json:"direction"`
	Confidence             *float64         `json:"confidence"`
	Reasoning              json.RawMessage  `json:"reasoning"`
	StopLossDistance       *float64         `json:"stop_loss_distance"`
	TakeProfitDistance     *float64         `json:"take_profit_distance"`
	PositionSizeMultiplier *float64         `json:"position_size_multiplier"`
}

// Normalize validates arbitrary oracle output at the boundary. Any shape
// without a recognized action collapses into the safe hold default with zero
// confidence; a recognized action with missing confidence gets 0.5 and
// missing reasoning becomes an empty list. Untyped data never travels
// further inward than this function.
func Normalize(raw string) types.Decision {
	raw = stripFences(raw)

	var rd rawDecision
	if err := json.Unmarshal([]byte(raw), &rd); err != nil {
		return types.HoldDecision("oracle response was not valid JSON")
	}

	d := types.Decision{
		Action:                 types.ActionHold,
		Direction:              types.None,
		Reasoning:              []string{},
		PositionSizeMultiplier: 1.0,
	}

	switch strings.ToLower(strings.TrimSpace(rd.Action)) {
	case "buy":
		d.Action = types.ActionOpen
		d.Direction = types.Buy
	case "sell":
		d.Action = types.ActionOpen
		d.Direction = types.Sell
	case "open":
		switch strings.ToLower(strings.TrimSpace(rd.Direction)) {
		case "buy":
			d.Action = types.ActionOpen
			d.Direction = types.Buy
		case "sell":
			d.Action = types.ActionOpen
			d.Direction = types.Sell
		default:
			return types.HoldDecision("oracle proposed open without a direction")
		}
	case "hold":
		// Valid hold, keep zero-value confidence unless provided below.
	default:
		return types.HoldDecision("oracle response missing a recognized action")
	}

	if rd.Confidence != nil {
		c := *rd.Confidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		d.Confidence = c
	} else if d.Action == types.ActionOpen {
		d.Confidence = 0.5
	}

	d.Reasoning = parseReasoning(rd.Reasoning)
	d.StopLossDistance = rd.StopLossDistance
	d.TakeProfitDistance = rd.TakeProfitDistance
	if rd.PositionSizeMultiplier != nil && *rd.PositionSizeMultiplier > 0 {
		d.PositionSizeMultiplier = *rd.PositionSizeMultiplier
	}

	return d
}

// parseReasoning accepts either a single string or a list of strings.
func parseReasoning(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return []string{s}
	}
	return []string{}
}

// stripFences removes a markdown code fence the model may wrap its JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"forex-trading-agent/internal/llm"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/trace"
	"forex-trading-agent/internal/types"
)

type Decider struct {
	cfg     *store.Config
	client  *http.Client
	context llm.ContextProvider
}

func NewDecider(cfg *store.Config, cp llm.ContextProvider) *Decider {
	return &Decider{
		cfg:     cfg,
		client:  &http.Client{Timeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second},
		context: cp,
	}
}

func (d *Decider) Decide(ctx context.Context, snap types.MarketSnapshot, signals []types.StrategySignal, recent []types.TradeRecord) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return types.Decision{}, fmt.Errorf("%w: OPENAI_API_KEY missing", types.ErrCredentialsInvalid)
	}

	var extra []string
	if d.context != nil {
		extra = d.context.MarketContext(ctx, snap.Instrument)
	}

	system := d.cfg.LLM.System
	if system == "" {
		system = llm.DefaultSystem
	}
	prompt := llm.BuildPrompt(snap, signals, llm.TailRecords(recent), extra)

	body := map[string]any{
		"model": d.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"temperature":     d.cfg.LLM.Temperature,
		"max_tokens":      d.cfg.LLM.MaxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	if err != nil {
		return types.Decision{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return types.Decision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return types.Decision{}, fmt.Errorf("%w: openai http %d", types.ErrCredentialsInvalid, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return types.Decision{}, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Decision{}, err
	}
	if len(r.Choices) == 0 {
		return types.Decision{}, errors.New("openai response had no choices")
	}

	return llm.Normalize(strings.TrimSpace(r.Choices[0].Message.Content)), nil
}

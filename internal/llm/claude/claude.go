package claude

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
	cfg      *store.Config
	client   *http.Client
	endpoint string
	context  llm.ContextProvider
}

func NewDecider(cfg *store.Config, cp llm.ContextProvider) *Decider {
	endpoint := "https://api.anthropic.com/v1/messages"
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Decider{
		cfg:      cfg,
		client:   &http.Client{Timeout: time.Duration(cfg.CallTimeoutSeconds) * time.Second},
		endpoint: endpoint,
		context:  cp,
	}
}

func (d *Decider) Decide(ctx context.Context, snap types.MarketSnapshot, signals []types.StrategySignal, recent []types.TradeRecord) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return types.Decision{}, fmt.Errorf("%w: CLAUDE_API_KEY missing", types.ErrCredentialsInvalid)
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
		"model":  d.cfg.LLM.Model,
		"system": system,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  d.cfg.LLM.MaxTokens,
		"temperature": d.cfg.LLM.Temperature,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(bb))
	if err != nil {
		return types.Decision{}, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return types.Decision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return types.Decision{}, fmt.Errorf("%w: claude http %d", types.ErrCredentialsInvalid, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return types.Decision{}, fmt.Errorf("claude http %d", resp.StatusCode)
	}

	var r struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Decision{}, err
	}
	for _, block := range r.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return llm.Normalize(block.Text), nil
		}
	}
	return types.Decision{}, errors.New("claude response had no text content")
}

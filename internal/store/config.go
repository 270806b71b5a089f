package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode               string `yaml:"mode"`
	Instrument         string `yaml:"instrument"`
	PollSeconds        int    `yaml:"poll_seconds"`
	CallTimeoutSeconds int    `yaml:"call_timeout_seconds"`
	Lot                struct {
		Size float64 `yaml:"size"`
	} `yaml:"lot"`
	Capture struct {
		Source     string `yaml:"source"`
		URL        string `yaml:"url"`
		StaticPath string `yaml:"static_path"`
	} `yaml:"capture"`
	Parser struct {
		URL                 string  `yaml:"url"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		OverlapThreshold    float64 `yaml:"overlap_threshold"`
		NormalizeCoords     bool    `yaml:"normalize_coords"`
		RequestsPerMinute   int     `yaml:"requests_per_minute"`
	} `yaml:"parser"`
	Executor struct {
		URL string `yaml:"url"`
	} `yaml:"executor"`
	Risk struct {
		MaxConsecutiveFailures  int     `yaml:"max_consecutive_failures"`
		VolatilityIndicator     string  `yaml:"volatility_indicator"`
		HighVolatilityThreshold float64 `yaml:"high_volatility_threshold"`
		DefaultStopPips         float64 `yaml:"default_stop_pips"`
		RewardRiskRatio         float64 `yaml:"reward_risk_ratio"`
		AccountBalance          float64 `yaml:"account_balance"`
		PerTradeRiskPct         float64 `yaml:"per_trade_risk_pct"`
	} `yaml:"risk"`
	History struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"history"`
	LLM struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
		System      string  `yaml:"system"`
	} `yaml:"llm"`
	News struct {
		Enabled      bool `yaml:"enabled"`
		MaxHeadlines int  `yaml:"max_headlines"`
	} `yaml:"news"`
	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Instrument == "" {
		return fmt.Errorf("instrument cannot be empty")
	}
	if c.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive, got %d", c.PollSeconds)
	}
	if c.CallTimeoutSeconds <= 0 {
		return fmt.Errorf("call_timeout_seconds must be positive, got %d", c.CallTimeoutSeconds)
	}
	if c.Parser.URL == "" {
		return fmt.Errorf("parser.url cannot be empty")
	}
	if c.Capture.Source != "HTTP" && c.Capture.Source != "STATIC" {
		return fmt.Errorf("capture.source must be 'HTTP' or 'STATIC', got '%s'", c.Capture.Source)
	}
	if c.Capture.Source == "HTTP" && c.Capture.URL == "" {
		return fmt.Errorf("capture.url required when capture.source is HTTP")
	}
	if c.Lot.Size <= 0 {
		return fmt.Errorf("lot.size must be positive, got %.4f", c.Lot.Size)
	}
	if c.Risk.PerTradeRiskPct < 0 || c.Risk.PerTradeRiskPct > 100 {
		return fmt.Errorf("risk.per_trade_risk_pct must be between 0-100, got %.2f", c.Risk.PerTradeRiskPct)
	}
	if c.History.Capacity <= 0 {
		return fmt.Errorf("history.capacity must be positive, got %d", c.History.Capacity)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// ApplyDefaults fills zero-valued fields so a minimal config file works.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Instrument == "" {
		c.Instrument = "EURUSD"
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.CallTimeoutSeconds == 0 {
		c.CallTimeoutSeconds = 30
	}
	if c.Lot.Size == 0 {
		c.Lot.Size = 0.01
	}
	if c.Capture.Source == "" {
		c.Capture.Source = "STATIC"
	}
	if c.Parser.ConfidenceThreshold == 0 {
		c.Parser.ConfidenceThreshold = 0.05
	}
	if c.Parser.OverlapThreshold == 0 {
		c.Parser.OverlapThreshold = 0.1
	}
	if c.Parser.RequestsPerMinute == 0 {
		c.Parser.RequestsPerMinute = 30
	}
	if c.Risk.MaxConsecutiveFailures == 0 {
		c.Risk.MaxConsecutiveFailures = 5
	}
	if c.Risk.VolatilityIndicator == "" {
		c.Risk.VolatilityIndicator = "atr"
	}
	if c.Risk.HighVolatilityThreshold == 0 {
		c.Risk.HighVolatilityThreshold = 0.006
	}
	if c.Risk.DefaultStopPips == 0 {
		c.Risk.DefaultStopPips = 20
	}
	if c.Risk.RewardRiskRatio == 0 {
		c.Risk.RewardRiskRatio = 1.5
	}
	if c.Risk.AccountBalance == 0 {
		c.Risk.AccountBalance = 10000
	}
	if c.Risk.PerTradeRiskPct == 0 {
		c.Risk.PerTradeRiskPct = 2.0
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = 100
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 5
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "agent.db"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 512
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"forex-trading-agent/internal/capture"
	"forex-trading-agent/internal/executor"
	"forex-trading-agent/internal/interfaces"
	"forex-trading-agent/internal/journal"
	"forex-trading-agent/internal/llm"
	"forex-trading-agent/internal/llm/claude"
	"forex-trading-agent/internal/llm/llmobs"
	"forex-trading-agent/internal/llm/noop"
	"forex-trading-agent/internal/llm/openai"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/news"
	"forex-trading-agent/internal/parser"
	"forex-trading-agent/internal/perf"
	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/trace"
	"forex-trading-agent/internal/tradelog"
)

// initializeSystem initializes env, logger, and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("AGENT_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("AGENT_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

func initializeCapturer(ctx context.Context, cfg *store.Config) interfaces.Capturer {
	if cfg.Capture.Source == "HTTP" {
		logger.Info(ctx, "Using HTTP capture service", "url", cfg.Capture.URL)
		return capture.NewHTTPCapturer(cfg)
	}
	logger.Info(ctx, "Using static screenshot source", "path", cfg.Capture.StaticPath)
	return capture.NewStaticCapturer(cfg.Capture.StaticPath)
}

func initializeParser(ctx context.Context, cfg *store.Config) interfaces.Parser {
	logger.Info(ctx, "Vision parser configured",
		"url", cfg.Parser.URL,
		"confidence_threshold", cfg.Parser.ConfidenceThreshold,
		"overlap_threshold", cfg.Parser.OverlapThreshold,
	)
	return parser.NewOmniParser(cfg)
}

// initializeDecider returns the decision oracle with observability.
func initializeDecider(ctx context.Context, cfg *store.Config) interfaces.Decider {
	var cp llm.ContextProvider
	if cfg.News.Enabled {
		cp = news.NewService(cfg)
		logger.Info(ctx, "News context enabled for oracle prompts")
	}

	var decider interfaces.Decider
	switch cfg.LLM.Provider {
	case "OPENAI":
		decider = openai.NewDecider(cfg, cp)
	case "CLAUDE":
		decider = claude.NewDecider(cfg, cp)
	default:
		decider = noop.NewDecider()
		logger.Warn(ctx, "No LLM provider configured - using noop decider (always hold)")
	}

	return llmobs.Wrap(decider)
}

func initializeExecutor(ctx context.Context, cfg *store.Config) interfaces.Executor {
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	return executor.NewBridge(cfg)
}

// shouldAutostart reports whether the scheduler should begin polling on
// startup. A prior crash while running resumes automatically; otherwise
// AGENT_AUTOSTART controls it (default true).
func shouldAutostart(jrnl *journal.Journal) bool {
	if running, err := jrnl.WasRunning(); err == nil && running {
		return true
	}
	if v := os.Getenv("AGENT_AUTOSTART"); v == "false" || v == "0" {
		return false
	}
	return true
}

// openJournal opens the SQLite journal and restores persisted trade history
// into the tracker.
func openJournal(ctx context.Context, cfg *store.Config, tracker *perf.Tracker) (*journal.Journal, error) {
	jrnl, err := journal.NewSQLite(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	records, err := jrnl.RecentTrades(cfg.History.Capacity)
	if err != nil {
		jrnl.Close()
		return nil, fmt.Errorf("load trade history: %w", err)
	}
	if len(records) > 0 {
		tracker.Restore(records)
		logger.Info(ctx, "Trade history restored", "records", len(records))
	}
	return jrnl, nil
}

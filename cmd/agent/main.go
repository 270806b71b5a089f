package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forex-trading-agent/internal/engine"
	"forex-trading-agent/internal/engine/engineobs"
	"forex-trading-agent/internal/logger"
	"forex-trading-agent/internal/perf"
	"forex-trading-agent/internal/risk"
	"forex-trading-agent/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx)

	capturer := initializeCapturer(ctx, cfg)
	visionParser := initializeParser(ctx, cfg)
	decider := initializeDecider(ctx, cfg)
	exec := initializeExecutor(ctx, cfg)

	tracker := perf.NewTracker(cfg.History.Capacity)
	jrnl, err := openJournal(ctx, cfg, tracker)
	must(err)
	defer jrnl.Close()

	eng := engineobs.Wrap(engine.New(cfg, capturer, visionParser, decider, exec, tracker, jrnl))
	breaker := risk.NewCircuitBreaker(cfg.Risk.MaxConsecutiveFailures)

	interval := time.Duration(cfg.PollSeconds) * time.Second
	ctrl := engine.NewController(interval, eng, breaker, tracker, jrnl)
	ctrl.SetNotifier(func(msg string) {
		logger.Warn(ctx, "Agent notification", "message", msg)
	})

	if shouldAutostart(jrnl) {
		ctrl.Start(ctx)
		logger.Info(ctx, "Agent started",
			"instrument", cfg.Instrument,
			"mode", cfg.Mode,
			"poll_seconds", cfg.PollSeconds,
		)
	} else {
		logger.Info(ctx, "Agent idle - autostart disabled and no prior running state")
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info(ctx, "Shutting down...")
	ctrl.Stop(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = trace.Shutdown(shutdownCtx)
}

// Command ctxrun runs an interactive agent session against stdin/stdout,
// driven by the default.module file in its config directory.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	ctxrun "ctxrun"
	"ctxrun/frontend/cli"
	"ctxrun/internal/config"
	"ctxrun/observer"
	"ctxrun/sse"
	"ctxrun/tools/docread"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("ctxrun: %v", err)
	}
	if cfg.APIKey == "" {
		log.Fatalf("ctxrun: %v", &ctxrun.ErrConfigMissing{Reason: "GOOGLE_API_KEY is not set"})
	}
	if err := config.EnsureDefaultModule(cfg.ConfigDir); err != nil {
		log.Fatalf("ctxrun: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var tracer ctxrun.Tracer
	var metrics ctxrun.Metrics
	if os.Getenv("CTXRUN_OTEL") != "" {
		inst, shutdown, err := observer.Init(context.Background())
		if err != nil {
			log.Fatalf("ctxrun: observer init: %v", err)
		}
		defer shutdown(context.Background())
		tracer = observer.NewTracer()
		metrics = observer.NewMetrics(inst)
		logger.Info("ctxrun: OTEL observability enabled")
	}

	client := sse.NewClient(cfg.APIKey, cfg.Model)
	client.HTTPClient.Timeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	client.Metrics = metrics

	modulePath := config.DefaultModulePath(cfg.ConfigDir)
	rootCtx, err := ctxrun.Load(modulePath, ctxrun.NewPair(), client, tracer, metrics, logger)
	if err != nil {
		log.Fatalf("ctxrun: %v", err)
	}
	rootCtx.MaxIterations = cfg.MaxIterations
	rootCtx.DocReader = docread.New()

	runner := cli.New(rootCtx, os.Stdin, os.Stdout, logger)
	if err := runner.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ctxrun: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/scrapecheck/api"
	"github.com/use-agent/scrapecheck/browser"
	"github.com/use-agent/scrapecheck/cache"
	"github.com/use-agent/scrapecheck/collector"
	"github.com/use-agent/scrapecheck/config"
	"github.com/use-agent/scrapecheck/engine"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("scrapecheck starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browser", cfg.Browser.Enabled,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Initialise fetch engines ─────────────────────────────────
	httpEngine := engine.NewHTTPEngine(cfg.Engine.HTTPTimeout)
	engines := []engine.Engine{httpEngine}

	deps := api.Deps{
		RobotsClient: httpEngine.Client(),
	}

	if cfg.Browser.Enabled {
		b, err := browser.New(cfg.Browser, cfg.Collector)
		if err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer b.Close()

		engines = append(engines,
			engine.NewBrowserEngine(b.Visit, false),
			engine.NewBrowserEngine(b.Visit, true),
		)
		deps.Stats = b.Stats
	} else {
		slog.Warn("browser disabled; analyses will not observe network traffic or window globals")
	}

	// ── 3b. Initialise multi-engine dispatcher ─────────────────────
	memory := engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL)
	defer memory.Stop()
	dispatcher := engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, memory)
	deps.Engines = dispatcher.Engines()
	slog.Info("multi-engine dispatcher enabled",
		"engines", deps.Engines,
		"delays", cfg.Engine.EscalationDelays,
	)

	// ── 4. Initialise collector ─────────────────────────────────────
	deps.Analyzer = collector.New(dispatcher, httpEngine.Client(), cfg.Collector.FetchRobots)

	// ── 4b. Initialise cache ────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Stop()
	deps.Cache = cc

	// ── 5. Setup router ─────────────────────────────────────────────
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	deps.StartTime = time.Now()
	router := api.NewRouter(rootCtx, cfg, deps)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred Close/Stop calls drain the page pool and kill Chrome.
	slog.Info("scrapecheck stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

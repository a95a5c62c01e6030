// Command chatd serves one streaming chat conversation over HTTP.
//
// Fragments are relayed to browsers on GET /v1/events as Server-Sent Events
// while POST /v1/messages runs the exchange.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/server"
	"github.com/kbukum/chatstream/server/middleware"
	"github.com/kbukum/chatstream/sse"
	"github.com/kbukum/chatstream/util"
	"github.com/kbukum/chatstream/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging, cfg.Name)
	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warn("telemetry shutdown failed", logger.ErrorFields("telemetry_shutdown", err))
		}
	}()

	app, err := newApp(ctx, cfg, logger.GetGlobalLogger())
	if err != nil {
		return err
	}

	log.Info("starting", logger.Fields(
		"version", version.String(),
		logger.FieldDialect, app.engine.Dialect().Name(),
		logger.FieldModel, cfg.Provider.Model,
		"base_url", cfg.Provider.BaseURL,
		"api_key", util.MaskSecret(cfg.Provider.APIKey, 4),
	))

	if err := app.srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("shutdown signal received")

	app.engine.Cancel()
	return app.srv.Stop(context.Background())
}

// app wires one engine, the event hub and the HTTP server.
type app struct {
	engine *llm.Engine
	hub    *sse.Hub
	srv    *server.Server
}

func newApp(ctx context.Context, cfg *Config, log *logger.Logger) (*app, error) {
	hub := sse.NewHub(sse.WithLogger(log), sse.WithKeepAlive(cfg.Chat.EventKeepAlive))
	go hub.Run(ctx)

	engine, err := llm.NewEngine(cfg.Provider,
		llm.WithLogger(log),
		llm.WithObserver(sse.EngineObserver(hub)),
	)
	if err != nil {
		hub.Stop()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	srv := server.New(cfg.Server, log)
	srv.RegisterOnShutdown(hub.Stop)

	metrics, err := observability.NewHTTPMetrics(observability.Meter(serviceName))
	if err != nil {
		hub.Stop()
		return nil, err
	}

	h := &handlers{engine: engine, hub: hub, chat: cfg.Chat, log: log.WithComponent("api")}
	h.register(ctx, srv.GinEngine(), cfg, middleware.Tracing(), middleware.Metrics(metrics))
	srv.GinEngine().NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, server.ErrorResponse{Error: server.ErrorBody{Kind: "not_found", Message: "route not found"}})
	})

	return &app{engine: engine, hub: hub, srv: srv}, nil
}

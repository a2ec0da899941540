package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhpenta/pixelart"
	"github.com/mhpenta/pixelart/internal/app"
	"github.com/mhpenta/pixelart/internal/config"
	"github.com/mhpenta/pixelart/internal/handler"
	"github.com/mhpenta/pixelart/internal/server"
	"github.com/mhpenta/pixelart/internal/session"
	"github.com/mhpenta/pixelart/provider/gemini"
)

func main() {
	if err := run(); err != nil {
		slog.Error("pixelart exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	gen, err := gemini.NewWithAPIKey(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		return err
	}

	model := pixelart.Model(cfg.Model)
	manager := pixelart.NewManager(gen,
		pixelart.WithLogger(logger),
		pixelart.WithDefaultModel(model),
	)
	defer manager.Close()

	if _, ok := manager.GetModelInfo(model); !ok {
		return fmt.Errorf("%w: %s (available: %v)", pixelart.ErrModelNotRegistered, model, manager.ListModels())
	}

	genCfg := pixelart.DefaultConfig().WithModel(model)
	genCfg.WaitOnRateLimit = cfg.RateLimitWait
	genCfg.MaxWaitDuration = cfg.GenerationTimeout

	client := pixelart.NewClient(manager,
		pixelart.WithGenerateConfig(genCfg),
		pixelart.WithClientLogger(logger),
	)

	// Cancelled on shutdown to abort generations still in flight.
	genCtx, cancelGenerations := context.WithCancel(context.Background())
	defer cancelGenerations()

	sessions := session.NewStore(cfg.SessionCapacity, cfg.SessionTTL,
		func(id string) *app.Controller {
			return app.New(client, app.WithLogger(logger.With("session_id", id)))
		},
		session.WithLogger(logger),
		session.WithSecureCookie(!cfg.IsLocal()),
	)

	h := handler.New(sessions,
		handler.WithLogger(logger),
		handler.WithGenerationTimeout(cfg.GenerationTimeout),
		handler.WithBaseContext(genCtx),
		handler.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)
	srv := server.New(cfg.Port, server.NewMux(h, logger, cfg.CORSAllowedOrigins), logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	logger.Info("pixelart ready", "env", cfg.Env, "model", model, "addr", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	cancelGenerations()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}

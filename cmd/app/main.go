package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mauv0809/simfin-analysis/internal/config"
	"github.com/mauv0809/simfin-analysis/internal/handlers"
	"github.com/mauv0809/simfin-analysis/internal/service"
	"github.com/mauv0809/simfin-analysis/internal/simfin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if it exists (local dev)
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := cfg.NewLogger(os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup SimFin client and analysis service
	client := simfin.NewClient(simfin.Config{
		APIKey:      cfg.APIKey,
		DataDir:     cfg.DataDir,
		BaseURL:     cfg.BaseURL,
		RefreshDays: cfg.RefreshDays,
		RateLimit:   cfg.RateLimit,
	})
	svc := service.NewAnalysisService(client,
		service.WithDefaultMarket(cfg.DefaultMarket),
		service.WithTimeout(cfg.FetchTimeout),
		service.WithAlwaysRefreshPrices(cfg.RefreshPrices),
	)

	// Setup Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(handlers.ContextLogger(logger))
	e.Use(handlers.RequestLogger())
	e.Use(middleware.Recover())

	// Routes
	handlers.Register(e, handlers.New(), handlers.NewAnalysisHandler(svc))

	// Start server
	go func() {
		logger.Info().Str("addr", cfg.Addr()).Str("data_dir", cfg.DataDir).Msg("starting server")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

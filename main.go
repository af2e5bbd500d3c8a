package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // ?tz= zones resolve in minimal images

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/auditlog"
	"github.com/foulezombie94/Glymo-ai/internal/config"
	"github.com/foulezombie94/Glymo-ai/internal/entrystore"
	"github.com/foulezombie94/Glymo-ai/internal/logger"
	"github.com/foulezombie94/Glymo-ai/internal/provider/gemini"
	"github.com/foulezombie94/Glymo-ai/internal/provider/openfoodfacts"
	"github.com/foulezombie94/Glymo-ai/internal/session"
	"github.com/foulezombie94/Glymo-ai/internal/storage/backend"
)

const (
	sessionEventBuffer = 64
	shutdownTimeout    = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "glymo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Environment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	cfg.Log(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions := session.NewManager(store, entrystore.Options{MealLimit: cfg.MealLimit, Logger: log})
	bus := session.NewBus(sessionEventBuffer)
	go sessions.Run(ctx, bus.Events())

	audit := auditlog.New(store, cfg.AuditBuffer, log)

	recognizer := gemini.New(gemini.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GeminiTimeout,
	})
	if recognizer.DemoMode() {
		log.Warn("GLYMO_GEMINI_API_KEY not set, meal photos return the demo product")
	}

	h := &Handler{
		store:      store,
		sessions:   sessions,
		bus:        bus,
		audit:      audit,
		products:   openfoodfacts.New(openfoodfacts.Options{BaseURL: cfg.OFFBaseURL, Timeout: cfg.HTTPTimeout}),
		recognizer: recognizer,
		log:        log,
		now:        time.Now,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := audit.Close(shutdownCtx); err != nil {
		log.Warn("audit log not fully flushed", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"pfline/internal/api"
	"pfline/internal/config"
	"pfline/internal/data"
	"pfline/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (default: built-in defaults)")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.API.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The API key may also come from clients through the X-API-Key header.
	gs := data.NewGridStatusClient(cfg.GridStatus.APIKey, cfg.GridStatus.BaseURL, logger)
	// Caching GridStatus responses is for local development only.
	if cfg.GridStatus.Cache && cfg.API.Env != "production" {
		gs.Cache = data.NewResponseCache(cfg.GridStatus.CacheTTL)
		go gs.Cache.Run(ctx, 5*time.Minute)
		logger.Warn("gridstatus response cache enabled; development use only", zap.Duration("ttl", cfg.GridStatus.CacheTTL))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := api.NewRouter(api.Options{
		Logger:      logger,
		Builder:     cfg.Tolerance.Builder(),
		CORSOrigins: cfg.API.CORSOrigins,
		GridStatus:  gs,
		Registry:    reg,
		StaticDir:   cfg.API.StaticDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.API.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", zap.String("addr", srv.Addr), zap.String("env", cfg.API.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

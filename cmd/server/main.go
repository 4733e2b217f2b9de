package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/part107/internal/api"
	"github.com/vytor/part107/internal/app"
	"github.com/vytor/part107/internal/config"
	"github.com/vytor/part107/internal/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Part 107 Study Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("store_driver=%s", cfg.StoreDriver)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("data_file=%s", cfg.DataFile)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("quick_session_size=%d", cfg.QuickSessionSize)

	a, err := app.New(cfg)
	if err != nil {
		log.Error("failed to start: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing store")
		if err := a.Close(); err != nil {
			log.Error("failed to close store: %v", err)
		}
	}()

	srv := &api.Server{
		StudyService:    a.Study,
		PracticeService: a.Practice,
		ProgressService: a.Progress,
		SettingsService: a.Settings,
		Store:           a.Store,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("received signal %v, initiating graceful shutdown", sig)
	case err := <-errCh:
		log.Error("HTTP server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("Part 107 Study Server Stopped")
	log.Info("===========================================")
}

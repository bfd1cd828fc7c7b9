package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/pokemon-chess-battle/internal/arenabuilder"
	appcfg "github.com/park285/pokemon-chess-battle/internal/config"
	"github.com/park285/pokemon-chess-battle/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(cfg.Log); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	deps, err := arenabuilder.New(startCtx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("arena_init_error", zap.Error(err))
	}
	logger.Info("arena_ready",
		zap.String("battle_id", deps.Arena.BattleID()),
		zap.String("store", cfg.StoreBackend),
		zap.String("slot", cfg.SaveSlot),
	)

	errCh := make(chan error, 2)
	go func() {
		if err := deps.Server.ListenAndServe(cfg.ListenAddr); err != nil {
			errCh <- err
		}
	}()

	// websocket feed runs on net/http
	var feedSrv *http.Server
	if cfg.FeedAddr != "" {
		feedSrv = &http.Server{
			Addr:              cfg.FeedAddr,
			Handler:           deps.Feed.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("feed_listen", zap.String("addr", cfg.FeedAddr))
			if err := feedSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("arena_shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("arena_listener_error", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if feedSrv != nil {
		_ = feedSrv.Shutdown(shutdownCtx)
	}
	_ = deps.Server.Shutdown(shutdownCtx)
	if err := deps.Close(); err != nil {
		logger.Warn("arena_close_error", zap.Error(err))
	}
}

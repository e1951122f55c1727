package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hokmgame/server/internal/adminapi"
	"github.com/hokmgame/server/internal/clock"
	"github.com/hokmgame/server/internal/config"
	"github.com/hokmgame/server/internal/coordinator"
	"github.com/hokmgame/server/internal/hub"
	"github.com/hokmgame/server/internal/metrics"
	"github.com/hokmgame/server/internal/players"
	"github.com/hokmgame/server/internal/store"
)

func main() {
	cfg := &config.Config{}
	cmd := config.NewCommand(cfg, run)
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	configureLogging(cfg.LogLevel)
	slog.Info("starting hokm server", "listen_address", cfg.ListenAddress, "store_driver", cfg.StoreDriver)

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}

	clk := clock.NewSystemUTCClock()
	metricsReg := metrics.NewRegistry()
	reg := hub.NewRegistry(metricsReg)
	idGen := &players.WhimsicalIDGenerator{}

	co := coordinator.NewCoordinator(reg, st, clk, metricsReg, idGen, coordinator.Config{
		TurnTimeout:       cfg.TurnTimeout,
		ReconnectGrace:    cfg.ReconnectGrace,
		HeartbeatInterval: cfg.HeartbeatInterval,
		RoomQueueCapacity: cfg.RoomQueueCapacity,
	})

	mux := adminapi.NewMux()
	adminapi.Register(mux, adminapi.NewHandler(co, metricsReg.Handler()))
	mux.Add(adminapi.NewJSONContentTypeMiddleware())
	mux.Add(adminapi.NewRateLimiterMiddleware(20, 5))

	httpMux := http.NewServeMux()
	httpMux.Handle("/healthz", mux)
	httpMux.Handle("/readyz", mux)
	httpMux.Handle("/metrics", mux)
	httpMux.Handle("/debug/rooms", mux)
	httpMux.HandleFunc("/hokm/v1/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(reg, co, uuid.NewString(), w, r)
	})

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: httpMux,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "address", cfg.ListenAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDrainTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("http server shutdown did not complete cleanly", "error", err)
	}
	co.Shutdown(ctx)
	slog.Info("shutdown complete")
	return nil
}

func buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == "postgres" {
		return store.NewPostgresStore(store.PostgresConfig{
			ConnectionString: cfg.StoreEndpoint,
			RoomCacheSize:    cfg.RoomCacheSize,
			RoomTTL:          cfg.RoomTTL,
			SessionTTL:       cfg.SessionTTL,
		})
	}
	return store.NewInMemoryStore(), nil
}

func configureLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/auth"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/config"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/logging"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/server"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/signaling"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/version"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the room coordinator",
	Long: `Start the websocket gateway and the administrative API.

Examples:
  interview-server serve --addr :8080 --jwt-secret change-me
  INTERVIEW_ROOMS_ENFORCE_DURATION=true interview-server serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Warn("no jwt secret configured, room provisioning is disabled")
	}
	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := interview.NewRegistry(interview.Options{
		PasskeyCost:     cfg.PasskeyCost,
		EnforceDuration: cfg.EnforceDuration,
		DefaultDuration: cfg.DefaultDuration,
		IdleTTL:         cfg.IdleTTL,
	})
	hub := signaling.NewHub(registry, signaling.Config{
		StrictRouting:  cfg.StrictRouting,
		MaxMessageSize: cfg.MaxMessageSize,
		SendBuffer:     cfg.SendBuffer,
	})
	router := server.NewRouter(hub, auth.New(cfg.JWTSecret), server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Shutdown)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting interview server", "addr", cfg.Addr, "version", version.Version,
			"strict_routing", cfg.StrictRouting, "enforce_duration", cfg.EnforceDuration)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "rooms", registry.Len(), "connections", hub.ConnectionCount())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Give the websocket pumps a moment to send their close frames.
	for hub.ConnectionCount() > 0 && shutdownCtx.Err() == nil {
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

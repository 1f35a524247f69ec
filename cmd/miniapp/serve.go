package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fasthttp/router"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	deliveryHTTP "solana-miniapp/internal/adapter/delivery/http"
	"solana-miniapp/internal/adapter/host"
	"solana-miniapp/internal/adapter/notification"
	"solana-miniapp/internal/application"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rootCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Initializing dependencies...")
	deps, cacheRepo, err := buildWalletDeps(rootCtx)
	if err != nil {
		return err
	}
	deps.Notifier = notification.NewClient(cfg.Notifications.BackendURL, log)

	var bridge *host.Bridge
	if cfg.Host.BridgeURL != "" {
		bridge, err = host.Dial(rootCtx, cfg.Host.BridgeURL, cfg.Host.DialTimeout, cfg.Host.CallTimeout, log)
		if err != nil {
			return err
		}
		deps.Bridge = bridge
	} else {
		log.Warn("No host bridge configured; actions will report the session as not loaded")
	}

	app := application.NewMiniApp(rootCtx, deps, *cfg, log)
	if bridge != nil {
		app.CloseOnDisconnect(bridge.Done())
		go func() {
			if err := app.Start(rootCtx); err != nil {
				log.Error("Failed to start host session", zap.Error(err))
			}
		}()
	}

	notificationService := application.NewNotificationService(notification.NewDispatcher(log), cfg.Notifications, log)
	metadataService := application.NewMetadataService(cacheRepo, cfg.Metadata, log)

	log.Info("Setting up HTTP router...")
	r := router.New()
	deliveryHTTP.RegisterRoutes(r, deliveryHTTP.Handlers{
		Actions:       deliveryHTTP.NewActionHandler(app, cfg.Demo.Destination, log),
		Notifications: deliveryHTTP.NewNotificationHandler(notificationService, log),
		Metadata:      deliveryHTTP.NewMetadataHandler(metadataService, cfg.Metadata.GetRevalidate(), log),
	}, log)

	server := &fasthttp.Server{
		Handler: deliveryHTTP.LoggingMiddleware(log, r.Handler),
		Name:    cfg.App.Name,
	}

	serverAddr := ":" + cfg.Server.Port
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("address", serverAddr))
		serveErr <- server.ListenAndServe(serverAddr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server stopped: %w", err)
	case <-rootCtx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	app.Shutdown()
	if bridge != nil {
		if err := bridge.Shutdown(); err != nil {
			log.Warn("Host bridge shutdown error", zap.Error(err))
		}
	}
	log.Info("Shutdown complete")
	return nil
}

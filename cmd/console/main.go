package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yallaeat/delivery-console/internal/api"
	"github.com/yallaeat/delivery-console/internal/config"
	"github.com/yallaeat/delivery-console/internal/httpapi"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(os.Stdout, "[delivery-console] ", log.LstdFlags|log.Lmicroseconds)

	platform := api.NewClient(cfg.PlatformURL, &http.Client{
		Timeout: cfg.UpstreamTimeout,
	})

	// Base context for driver pollers; cancelled on shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:    logger,
		Cfg:       cfg,
		Checkouts: httpapi.NewCheckoutRegistry(platform, logger),
		Drivers:   httpapi.NewDriverRegistry(ctx, platform, cfg.DashboardPollInterval, cfg.OrdersPollInterval, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("listening on :%s (platform %s)", cfg.Port, cfg.PlatformURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
	logger.Printf("shutdown complete")
}

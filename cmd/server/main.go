package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docpass/internal/api"
	"github.com/dgallion1/docpass/internal/config"
	"github.com/dgallion1/docpass/internal/convert"
	"github.com/dgallion1/docpass/internal/imagehost"
	"github.com/dgallion1/docpass/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the image host client when configured.
	var (
		images   *imagehost.Client
		resolver convert.Resolver
	)
	if cfg.ImageHostURL != "" {
		images = imagehost.NewClient(cfg.ImageHostURL, cfg.ImageHostAPIKey, imagehost.Options{
			Root:          cfg.ImageRoot,
			MaxConcurrent: cfg.MaxConcurrentUpload,
			Timeout:       cfg.UploadTimeout,
		}, log)
		resolver = images
	} else {
		log.Warn("IMAGEHOST_URL not set, image upload disabled")
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, resolver, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, images, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if images != nil {
			images.Close()
		}
	}()

	log.Info("starting docpass", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

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

	"seismic-stations/internal/config"
	"seismic-stations/internal/storage"
	"seismic-stations/internal/web"
	"seismic-stations/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	port := flag.Int("port", cfg.Port, "HTTP server port")
	flag.Parse()

	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Failed to initialize storage")
	}

	switch s := store.(type) {
	case *storage.S3Storage:
		logger.Log.Info().Str("bucket", s.Bucket()).Msg("Using S3 for data storage")
	case *storage.LocalStorage:
		logger.Log.Info().Str("path", s.Path()).Msg("Using local file storage")
	}

	mux := http.NewServeMux()
	web.NewHandler(store).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	logger.Log.Info().Msgf("Starting server on http://localhost%s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}

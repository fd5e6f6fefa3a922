package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/stashgate/cdn/internal/catalog"
	"github.com/stashgate/cdn/internal/config"
	"github.com/stashgate/cdn/internal/handlers"
	"github.com/stashgate/cdn/internal/logger"
	"github.com/stashgate/cdn/internal/metrics"
	"github.com/stashgate/cdn/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", false)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.LogLevel, false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var contentSource source.Source
	switch cfg.StorageType {
	case config.StorageTypeMinio:
		client, err := source.Connect(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init storage")
		}
		contentSource = source.NewMinioSource(client, cfg.ContentBucket, cfg.ThumbnailBucket)
	case config.StorageTypeLocal:
		contentSource, err = source.NewLocalSource(cfg.LocalStoragePath, cfg.ThumbnailBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init storage")
		}
	}

	var cat *catalog.Catalog
	if cfg.CatalogDSN != "" {
		cat, err = catalog.Open(ctx, cfg.CatalogDSN, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open catalog")
		}
		defer cat.Close()
	}

	streamHandler := handlers.NewStreamHandler(contentSource, cat, cfg.StreamBytesPerSec, log)
	listHandler := handlers.NewListHandler(contentSource, log)
	thumbnailHandler := handlers.NewThumbnailHandler(contentSource, log)
	pingHandler := handlers.NewPingHandler()

	r := mux.NewRouter()
	r.HandleFunc("/api/stream/{resource:.+}", streamHandler.StreamResource).Methods(http.MethodGet)
	r.HandleFunc("/api/list/{container:.*}", listHandler.ListContainer).Methods(http.MethodGet)
	r.HandleFunc("/api/thumbnail/{resource:.+}", thumbnailHandler.GetThumbnail).Methods(http.MethodGet)
	r.HandleFunc("/ping", pingHandler.HandlePing).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.Use(handlers.Logging(log))

	srv := &http.Server{
		Handler: r,
		Addr:    ":" + cfg.ServerPort,
		// No WriteTimeout: streams legitimately outlive any fixed limit.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("addr", srv.Addr).
		Str("storage", string(cfg.StorageType)).
		Bool("catalog", cat != nil).
		Msg("server starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

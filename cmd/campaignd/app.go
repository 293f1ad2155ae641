package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dshills/callcampaign-mcp/internal/config"
	"github.com/dshills/callcampaign-mcp/internal/importer"
	"github.com/dshills/callcampaign-mcp/internal/resolver"
	"github.com/dshills/callcampaign-mcp/internal/similarity"
	"github.com/dshills/callcampaign-mcp/internal/storage"
)

// app holds the components shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.SQLiteStorage
	registry *prometheus.Registry
	metrics  *resolver.Metrics
	resolver *resolver.Resolver
	importer *importer.Importer
}

// newLogger builds the stderr logger described by cfg
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// newApp opens the store and wires the resolver and importer to it
func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, error) {
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.DBPath, storage.Options{Logger: logger})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := resolver.NewMetrics(registry)

	res, err := resolver.New(store, resolver.Config{
		Logger:        logger,
		Metrics:       metrics,
		Normalizer:    similarity.NormalizerFor(cfg.NormalizationMode()),
		MaxCandidates: cfg.Resolver.MaxCandidates,
		FuzzyTimeout:  cfg.Resolver.FuzzyTimeout,
		CacheSize:     cfg.Resolver.CacheSize,
		CacheTTL:      cfg.Resolver.CacheTTL,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	imp := importer.New(store, importer.Config{
		Workers:   cfg.Import.Workers,
		BatchSize: cfg.Import.BatchSize,
		Logger:    logger,
		OnImport: func(int64) {
			res.InvalidateCache()
		},
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		metrics:  metrics,
		resolver: res,
		importer: imp,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

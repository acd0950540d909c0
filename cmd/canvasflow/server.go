package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/canvasflow/api/handlers"
	"github.com/BaSui01/canvasflow/config"
	"github.com/BaSui01/canvasflow/internal/cache"
	"github.com/BaSui01/canvasflow/internal/metrics"
	"github.com/BaSui01/canvasflow/internal/server"
	"github.com/BaSui01/canvasflow/storage"
)

// app wires the service together: storage, optional Redis cache, metrics,
// the HTTP handlers, and the server lifecycle.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *storage.Store
	documents *cache.Manager
	hub       *handlers.Hub
	editor    *handlers.EditorHandler
	manager   *server.Manager
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := storage.Open(cfg.Database.Path, logger.Named("storage"))
	if err != nil {
		return nil, err
	}

	// The cache is optional: no address means no cache, and a Redis that
	// is down at startup degrades to direct reads rather than failing.
	var documents *cache.Manager
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		documents, err = cache.NewManager(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL.Std(),
		}, logger.Named("cache"))
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", zap.Error(err))
			documents = nil
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("canvasflow", registry, logger.Named("metrics"))

	hub := handlers.NewHub(logger.Named("hub"))
	editor := handlers.NewEditorHandler(store, collector, hub,
		cfg.Editor.BumpDelay.Std(), logger.Named("editor"))

	mux := http.NewServeMux()
	handlers.NewWorkflowHandler(store, documents, collector, hub, logger.Named("api")).Register(mux)
	editor.Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", handleHealth)

	handler := Chain(mux,
		Recovery(logger),
		RequestID(),
		RequestLogger(logger),
		Metrics(collector),
	)

	manager := server.NewManager(handler, server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout.Std(),
		WriteTimeout:    cfg.Server.WriteTimeout.Std(),
		IdleTimeout:     cfg.Server.IdleTimeout.Std(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
	}, logger.Named("server"))

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		documents: documents,
		hub:       hub,
		editor:    editor,
		manager:   manager,
	}, nil
}

// run serves until a termination signal arrives.
func (a *app) run(ctx context.Context) error {
	return a.manager.Run(ctx)
}

func (a *app) close() {
	a.editor.Close()
	a.hub.Close()
	if a.documents != nil {
		if err := a.documents.Close(); err != nil {
			a.logger.Warn("closing cache", zap.Error(err))
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + Version + `"}`))
}

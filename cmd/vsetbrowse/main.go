package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/vsetbrowse/internal/config"
	dbRedis "github.com/kailas-cloud/vsetbrowse/internal/db/redis"
	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	logpkg "github.com/kailas-cloud/vsetbrowse/internal/logger"
	"github.com/kailas-cloud/vsetbrowse/internal/metrics"
	"github.com/kailas-cloud/vsetbrowse/internal/repository/embcache"
	"github.com/kailas-cloud/vsetbrowse/internal/repository/prefs"
	vsetrepo "github.com/kailas-cloud/vsetbrowse/internal/repository/vset"
	chiTransport "github.com/kailas-cloud/vsetbrowse/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/vsetbrowse/internal/transport/openai"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/attributes"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/browser"
	embeddinguc "github.com/kailas-cloud/vsetbrowse/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vsetbrowse/internal/usecase/health"
	keyinfouc "github.com/kailas-cloud/vsetbrowse/internal/usecase/keyinfo"
	searchuc "github.com/kailas-cloud/vsetbrowse/internal/usecase/search"
	"github.com/kailas-cloud/vsetbrowse/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()
	restoreGlobals := zap.ReplaceGlobals(logger)
	defer restoreGlobals()

	logger.Info("Starting vsetbrowse server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterHTTPMetrics()
	metrics.RegisterBrowserMetrics()
	metrics.RegisterEmbeddingMetrics()

	locale, err := language.Parse(cfg.Browser.Locale)
	if err != nil {
		logger.Fatal("Invalid browser locale", zap.String("locale", cfg.Browser.Locale), zap.Error(err))
	}

	repo := vsetrepo.New(store)
	embedder, embedHealth := buildEmbedder(cfg.Embedding, store, logger)
	searchSvc := searchuc.New(repo, embedder, logger)

	session := browser.New(
		attributes.New(repo, logger.Named("attributes")),
		prefs.New(store, cfg.Browser.PreferencePrefix, logger),
		cfg.Browser.Domain(),
		logger.Named("browser"),
		browser.WithWriter(repo),
		browser.WithSearcher(searchSvc),
		browser.WithLocale(locale),
	)

	health := healthuc.New().
		Require("redis", healthuc.CheckerFunc(store.Ping)).
		Optional("embedding", embedHealth)

	server := chiTransport.NewServer(session, keyinfouc.New(repo), health, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the query embedder chain:
// OpenAI -> Cached -> Instrumented -> Instruction.
// It returns nils when no provider is configured; element queries still work.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	store *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, healthuc.Checker) {
	if !cfg.Enabled() {
		logger.Info("No embedding provider configured, text queries disabled")
		return nil, nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if ttl := cfg.CacheTTL(); ttl > 0 {
		embedder = embcache.New(base, store, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.Dimensions, logger)

	// outermost, so the cache key includes the instruction
	embedder = domain.WithInstruction(embedder, cfg.Instruction)

	logger.Info("Query embedder created",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
	)
	return embedder, base
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rgdevment/spamguard/internal/classifier"
	"github.com/rgdevment/spamguard/internal/community"
	"github.com/rgdevment/spamguard/internal/config"
	"github.com/rgdevment/spamguard/internal/logging"
	"github.com/rgdevment/spamguard/internal/lookup"
	httpHandler "github.com/rgdevment/spamguard/internal/platform/http"
	"github.com/rgdevment/spamguard/internal/platform/cache/redis"
	"github.com/rgdevment/spamguard/internal/platform/metrics"
	"github.com/rgdevment/spamguard/internal/platform/storage/memory"
	"github.com/rgdevment/spamguard/internal/platform/storage/mongodb"
	"github.com/rgdevment/spamguard/internal/platform/storage/scylla"
	"github.com/rgdevment/spamguard/internal/provider"
	"github.com/rgdevment/spamguard/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, dotenv, err := config.Load()
	if err != nil {
		fallback := logging.New("info", "json")
		fallback.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if !dotenv {
		log.Debug().Msg("no .env file found, using environment variables")
	}
	log.Info().Msg("starting spamguard api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store, closeStore, err := aggregateStore(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("aggregate store unavailable")
		return 1
	}
	defer closeStore()

	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoURL)
	if err != nil {
		log.Error().Err(err).Msg("mongodb connection failed")
		return 1
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	db := mongoClient.Database(cfg.MongoDatabase)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Error().Err(err).Msg("mongodb index setup failed")
		return 1
	}

	cache, closeCache := statsCache(ctx, cfg, log)
	defer closeCache()

	verdicts, err := provider.New(ctx, cfg.AIProvider, cfg.AIAPIKey, cfg.AIModel, logging.Component(log, "provider"))
	if err != nil {
		log.Error().Err(err).Msg("AI provider setup failed")
		return 1
	}
	if verdicts == nil {
		log.Info().Msg("AI provider disabled, local patterns only")
	}

	pipeline := classifier.NewPipeline(
		classifier.NewLocalClassifier(classifier.DefaultLibrary()),
		verdicts,
		classifier.Config{
			ProviderTimeout: cfg.AITimeout,
			Uncertainty:     classifier.UncertaintyMode(cfg.DefaultVerdictOnUncertainty),
		},
		m,
		logging.Component(log, "classifier"),
	)

	aggregator := community.NewAggregator(store, logging.Component(log, "community"), community.WithRetryHook(m.CASRetry))

	var source lookup.Source = lookup.NewOffline()
	if cfg.CallerIDURL != "" {
		source = lookup.NewHTTP(cfg.CallerIDURL, cfg.CallerIDAPIKey, cfg.CallerIDTimeout)
	}

	svcLog := logging.Component(log, "service")
	analysisSvc := service.NewAnalysisService(
		pipeline,
		mongodb.NewMessageRepository(db),
		mongodb.NewSettingsRepository(db),
		mongodb.NewCounterRepository(db),
		cfg.BulkConcurrency,
		svcLog,
	)
	reportSvc := service.NewReportService(mongodb.NewReportRepository(db), aggregator, cache, m, cfg.SaltSecret, svcLog)
	lookupSvc := service.NewLookupService(source, reportSvc, cfg.BulkConcurrency, svcLog)
	settingsSvc := service.NewSettingsService(mongodb.NewSettingsRepository(db), mongodb.NewCounterRepository(db), svcLog)

	handler := httpHandler.NewHandler(analysisSvc, reportSvc, lookupSvc, settingsSvc, logging.Component(log, "http"))

	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           httpHandler.NewRouter(handler, cfg.APIMasterKey, m.Handler(), logging.Component(log, "http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPPort).Str("lookup_source", source.Name()).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			return 1
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
		return 1
	}
	log.Info().Msg("stopped")
	return 0
}

// aggregateStore selects the community aggregate backend.
func aggregateStore(cfg *config.Config, log zerolog.Logger) (community.Store, func(), error) {
	if cfg.AggregateStore == "memory" {
		log.Warn().Msg("community aggregates kept in memory, they will not survive a restart")
		return memory.NewAggregateStore(), func() {}, nil
	}

	session, err := scylla.Connect(logging.Component(log, "scylla"), cfg.ScyllaKeyspace, cfg.ScyllaHostList()...)
	if err != nil {
		return nil, nil, err
	}
	return scylla.NewAggregateRepository(session), session.Close, nil
}

// statsCache returns the redis cache when configured and reachable.
// Without it the service reads aggregates directly.
func statsCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.StatsCache, func()) {
	if cfg.RedisURL == "" {
		return nil, func() {}
	}
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, stats cache disabled")
		return nil, func() {}
	}
	return redis.NewStatsCache(client, cfg.StatsCacheTTL, logging.Component(log, "cache")), func() { _ = client.Close() }
}

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	awsclient "job-offer-pipeline/internal/common/aws"
	"job-offer-pipeline/internal/common/config"
	"job-offer-pipeline/internal/common/database"
	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/common/observability"
	"job-offer-pipeline/internal/engagement"
	"job-offer-pipeline/internal/extraction"
	"job-offer-pipeline/internal/joboffer"
	"job-offer-pipeline/internal/notify"
	"job-offer-pipeline/internal/search"
	"job-offer-pipeline/internal/store/postgres"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// app holds every long-lived client and the services built on them.
type app struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
	obs    *observability.Observability

	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient

	store      *postgres.Store
	stats      *search.CachedEngine
	jobOffers  *joboffer.Service
	engagement *engagement.Service
}

func newLogger(cfg *config.Config) (*zap.Logger, logger.Logger) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return zapLog, logger.NewZapAdapter(zapLog)
}

// connectPostgres opens the store connection; every command needs it.
func connectPostgres(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	zapLog.Info("PostgreSQL connected successfully")
	return pg, nil
}

func connectElasticsearch(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*database.ElasticsearchClient, error) {
	if !cfg.Database.Elasticsearch.Enabled {
		zapLog.Info("Elasticsearch disabled")
		return nil, nil
	}

	var es *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		return nil, err
	}
	zapLog.Info("Elasticsearch connected successfully")
	return es, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*database.RedisClient, error) {
	var rdb *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		return nil, err
	}
	zapLog.Info("Redis connected successfully")
	return rdb, nil
}

func newExtractor(ctx context.Context, cfg *config.Config, log logger.Logger) (extraction.Extractor, error) {
	timeout := config.GetDuration(cfg.Extraction.Timeout)
	switch cfg.Extraction.Provider {
	case config.ProviderLLM:
		model, err := extraction.NewGeminiModel(ctx, cfg.Extraction.LLM.APIKey, cfg.Extraction.LLM.Model)
		if err != nil {
			return nil, err
		}
		return extraction.NewLLMExtractor(model, extraction.LLMConfig{
			ModelName:     cfg.Extraction.LLM.Model,
			MaxInputChars: cfg.Extraction.LLM.MaxInputChars,
			Timeout:       timeout,
		}, log), nil
	default:
		return extraction.NewClient(extraction.Config{
			BaseURL:          cfg.Extraction.BaseURL,
			Timeout:          timeout,
			MaxResponseBytes: cfg.Extraction.MaxResponseBytes,
		}, log), nil
	}
}

func newPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Publisher, error) {
	if !cfg.Notifications.SNS.Enabled {
		return notify.NewLogPublisher(log), nil
	}
	client, err := awsclient.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
	if err != nil {
		return nil, fmt.Errorf("sns client: %w", err)
	}
	return notify.NewSNSPublisher(client, cfg.Notifications.SNS.TopicARN, log), nil
}

// buildApp connects every backing service and wires the pipeline.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	zapLog, log := newLogger(cfg)
	a := &app{cfg: cfg, zapLog: zapLog, log: log}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}
	a.obs = obs

	if a.pg, err = connectPostgres(ctx, cfg, zapLog); err != nil {
		a.close()
		return nil, err
	}
	if a.es, err = connectElasticsearch(ctx, cfg, zapLog); err != nil {
		a.close()
		return nil, err
	}
	if a.redis, err = connectRedis(ctx, cfg, zapLog); err != nil {
		a.close()
		return nil, err
	}

	searchOpts := search.Options{
		DefaultPageSize: cfg.Search.DefaultSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		StatsTopN:       cfg.Search.StatsTopN,
	}
	a.store = postgres.New(a.pg.DB, postgres.Options{
		DefaultPageSize: cfg.Search.DefaultSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		StatsTopN:       cfg.Search.StatsTopN,
	}, log)

	var (
		elastic *search.ElasticEngine
		indexer search.Indexer = search.NoopIndexer{}
	)
	if a.es != nil {
		elastic = search.NewElasticEngine(a.es.Client, cfg.Search.Index, searchOpts, log)
		indexer = elastic
	}

	engine, err := search.Select(cfg.Search.Backend, a.store, elastic)
	if err != nil {
		a.close()
		return nil, err
	}
	a.stats = search.NewCachedEngine(engine, a.redis.Client, config.GetDuration(cfg.Search.StatsCacheTTL), log)

	extractor, err := newExtractor(ctx, cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	publisher, err := newPublisher(ctx, cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}

	a.jobOffers = joboffer.NewService(joboffer.Dependencies{
		Store:         a.store,
		Extractor:     extractor,
		Indexer:       indexer,
		Cache:         a.stats,
		Publisher:     publisher,
		Observability: a.obs,
	}, log)
	a.engagement = engagement.NewService(a.store, log)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	a.obs.Shutdown()
	_ = a.zapLog.Sync()
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"ainews/internal/config"
	"ainews/internal/publisher"
	"ainews/internal/scoring"
	"ainews/internal/service"
	"ainews/internal/source/newsapi"
	"ainews/internal/storage/postgres"
)

// app holds the components every command shares.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqlx.DB
	stories   *postgres.StoryStore
	txManager *postgres.TransactionManager
	publisher service.Publisher
}

func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	a := &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		stories:   postgres.NewStoryStore(db),
		txManager: postgres.NewTransactionManager(db),
	}

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		a.publisher = rabbitMQ
	}

	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publisher", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

func (a *app) ingestService() *service.IngestService {
	source := newsapi.New(newsapi.Config{
		BaseURL:        a.cfg.NewsAPI.BaseURL,
		APIKey:         a.cfg.NewsAPI.APIKey,
		Query:          a.cfg.NewsAPI.Query,
		Language:       a.cfg.NewsAPI.Language,
		SortBy:         a.cfg.NewsAPI.SortBy,
		PageSize:       a.cfg.NewsAPI.PageSize,
		Timeout:        a.cfg.NewsAPI.Timeout,
		MaxAttempts:    a.cfg.NewsAPI.Retry.MaxAttempts,
		InitialBackoff: a.cfg.NewsAPI.Retry.InitialBackoff,
		MaxBackoff:     a.cfg.NewsAPI.Retry.MaxBackoff,
	}, a.logger)

	return service.NewIngestService(source, a.stories, a.txManager, a.publisher, a.logger)
}

func (a *app) digestService() (*service.DigestService, error) {
	loc, err := a.cfg.Digest.Location()
	if err != nil {
		return nil, err
	}
	return service.NewDigestService(a.stories, a.logger).InLocation(loc), nil
}

func (a *app) rescoreService() (*service.RescoreService, error) {
	sc := a.cfg.Scoring
	w := sc.Weights

	scorer, err := scoring.NewScorer(scoring.Signals{
		Content:     scoring.NewKeywordRelevance(sc.Keywords),
		Engagement:  scoring.NewClickThrough(a.stories),
		Credibility: scoring.NewCredibilityTable(sc.SourceCredibility, *sc.DefaultCredibility),
		Podcast:     scoring.Constant(*sc.PodcastEngagement),
	}, scoring.Weights{
		Content:     *w.Content,
		Engagement:  *w.Engagement,
		Freshness:   *w.Freshness,
		Credibility: *w.Credibility,
		Podcast:     *w.Podcast,
	}, sc.FreshnessHalfLife)
	if err != nil {
		return nil, fmt.Errorf("build scorer: %w", err)
	}

	return service.NewRescoreService(a.stories, scorer, a.publisher, sc.RescorePageSize, a.logger), nil
}

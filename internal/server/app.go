package server

import (
	"context"
	"fmt"

	"github.com/altura-labs/recommendation/internal/api/handlers"
	"github.com/altura-labs/recommendation/internal/cache"
	"github.com/altura-labs/recommendation/internal/config"
	"github.com/altura-labs/recommendation/internal/health"
	"github.com/altura-labs/recommendation/internal/middleware"
	"github.com/altura-labs/recommendation/internal/opensearch"
	"github.com/altura-labs/recommendation/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// App holds the wired service graph shared by the HTTP server, the Lambda
// entry point and the CLI.
type App struct {
	Config          *config.Config
	Search          *opensearch.Service
	Recommendations *services.RecommendationService
	Health          *health.HealthChecker
	Router          *gin.Engine

	cache  *cache.Cache
	done   chan struct{}
	logger *logrus.Logger
}

// NewApp wires dependencies. The OpenSearch client itself is not created
// until the first request needs it.
func NewApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if err := cfg.ValidateOpenSearch(); err != nil {
		return nil, err
	}

	provider := opensearch.NewProvider(func(ctx context.Context) (*opensearch.Client, error) {
		return opensearch.NewClient(ctx, cfg.OpenSearch, logger)
	}, logger)
	breaker := opensearch.NewCircuitBreaker("opensearch", cfg.Breaker.Timeout, cfg.Breaker.MaxFailures)
	searchService := opensearch.NewService(provider, breaker, logger)

	app := &App{
		Config: cfg,
		Search: searchService,
		done:   make(chan struct{}),
		logger: logger,
	}

	checker := health.NewHealthChecker(logger)
	checker.Register("opensearch", searchService)

	var resultCache services.ResultCache
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		app.cache = cache.NewCache(redisClient, logger)
		resultCache = app.cache
		checker.Register("redis", app.cache)
	}

	app.Recommendations = services.NewRecommendationService(searchService, resultCache, services.Options{
		DefaultIndex:  cfg.Search.DefaultIndex,
		DefaultTopK:   cfg.Search.DefaultTopK,
		UpsertEnabled: cfg.Search.UpsertEnabled,
		CacheTTL:      cfg.Cache.TTL,
	}, logger)
	app.Health = checker

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.PerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.PerMinute, app.done)
	}

	app.Router = NewRouter(RouterDeps{
		Recommendation: handlers.NewRecommendationHandler(app.Recommendations, logger),
		Health:         handlers.NewHealthHandler(checker),
		RateLimiter:    limiter,
		Logger:         logger,
	})

	return app, nil
}

func (a *App) Close() error {
	close(a.done)
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.WithError(err).Error("Failed to close Redis connection")
			return err
		}
	}
	return nil
}

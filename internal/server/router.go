package server

import (
	"fmt"
	"net/http"

	"github.com/altura-labs/recommendation/internal/api/handlers"
	"github.com/altura-labs/recommendation/internal/metrics"
	"github.com/altura-labs/recommendation/internal/middleware"
	"github.com/altura-labs/recommendation/internal/services"
	"github.com/altura-labs/recommendation/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	Recommendation *handlers.RecommendationHandler
	Health         *handlers.HealthHandler
	RateLimiter    *middleware.RateLimiter
	Logger         *logrus.Logger
}

// NewRouter assembles the gin engine. CORS runs before anything that can
// write a response so every status carries the headers.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	// A redirect would be written before any middleware runs, without CORS.
	router.RedirectTrailingSlash = false

	router.Use(
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Logger(deps.Logger),
		middleware.CORS(),
		gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
			deps.Logger.WithField("panic", recovered).Error("Recovered from panic")
			utils.TypedErrorResponse(c, http.StatusInternalServerError, fmt.Sprint(recovered), panicKind(recovered))
		}),
	)

	router.GET("/health", deps.Health.HandleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	search := router.Group("/")
	if deps.RateLimiter != nil {
		search.Use(deps.RateLimiter.RateLimit())
	}
	search.POST("/", deps.Recommendation.HandleRecommend)
	search.POST("/api/v1/recommendations", deps.Recommendation.HandleRecommend)

	return router
}

// panicKind names a recovered value the same way failed requests are named.
func panicKind(recovered interface{}) string {
	if err, ok := recovered.(error); ok {
		return services.ErrorKind(err)
	}
	return "RuntimeError"
}

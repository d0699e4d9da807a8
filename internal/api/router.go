package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jengzang/geolife-backend-go/internal/config"
	"github.com/jengzang/geolife-backend-go/internal/handler"
	"github.com/jengzang/geolife-backend-go/internal/middleware"
)

// SetupRouter builds the read-only query API
func SetupRouter(cfg *config.Config, queries *handler.QueryHandler, limiter *middleware.RateLimiter, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Geolife query API is running",
			"time":    time.Now().UTC(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}
	if cfg.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	}

	q := api.Group("/queries")
	{
		q.GET("/distance", queries.GetDistance)
		q.GET("/altitude-gain", queries.GetAltitudeGain)
		q.GET("/invalid-activities", queries.GetInvalidActivities)
		q.GET("/nearby", queries.GetNearbyUsers)
	}

	return r
}

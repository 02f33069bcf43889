package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-appointments-api/api/swagger"
	"github.com/noah-isme/sma-appointments-api/internal/middleware"
	"github.com/noah-isme/sma-appointments-api/pkg/config"
	"github.com/noah-isme/sma-appointments-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-appointments-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-appointments-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, a *app, logr *zap.Logger) *gin.Engine {
	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics, prefix+"/appointments/stream"))

	r.GET("/health", a.health.Health)
	r.GET("/ready", a.health.Ready)
	r.GET("/metrics", a.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())
	api.POST("/reschedule", middleware.RateLimit(a.limiter), a.reschedule.Reschedule)
	api.GET("/appointments", a.appointments.List)
	api.GET("/appointments/export", a.appointments.Export)
	api.GET("/appointments/stream", a.appointments.Stream)
	api.GET("/grade-levels", a.appointments.GradeLevels)

	return r
}

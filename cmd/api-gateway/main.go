package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-appointments-api/internal/handler"
	"github.com/noah-isme/sma-appointments-api/internal/middleware"
	"github.com/noah-isme/sma-appointments-api/internal/repository"
	"github.com/noah-isme/sma-appointments-api/internal/service"
	"github.com/noah-isme/sma-appointments-api/pkg/cache"
	"github.com/noah-isme/sma-appointments-api/pkg/config"
	"github.com/noah-isme/sma-appointments-api/pkg/database"
	"github.com/noah-isme/sma-appointments-api/pkg/logger"
)

// @title School Appointments API
// @version 1.0.0
// @description Guardian appointment rescheduling with slot suggestions and live dashboard snapshots.
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache and live updates", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	app, err := buildApp(cfg, db, redisClient, logr)
	if err != nil {
		return err
	}

	app.stream.Start(ctx)
	defer app.stream.Stop()
	go app.limiter.Run(ctx, time.Minute)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
		// cancelling the base context ends open event streams on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	metrics      *service.MetricsService
	stream       *service.StreamService
	limiter      *middleware.RateLimiter
	reschedule   *handler.RescheduleHandler
	appointments *handler.AppointmentHandler
	health       *handler.MetricsHandler
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*app, error) {
	metrics := service.NewMetricsService()

	matcher, err := service.NewGuardianMatcher(cfg.Scheduling.MatchStrategy)
	if err != nil {
		return nil, err
	}

	store := repository.NewAppointmentRepository(db)
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, "sma-appointments"), metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	appointmentSvc := service.NewAppointmentService(store, cacheSvc, nil, metrics, logr)

	var bus *repository.SnapshotRepository
	if redisClient != nil {
		bus = repository.NewSnapshotRepository(redisClient, cfg.Stream.Channel)
	}
	streamSvc := newStreamService(store, bus, appointmentSvc, metrics, cfg.Stream, logr)

	rescheduleSvc := service.NewRescheduleService(store, service.NewSlotPolicy(cfg.Scheduling), matcher, streamSvc, metrics, validator.New(), logr)

	checks := map[string]handler.ReadinessCheck{"postgres": store.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	return &app{
		metrics:      metrics,
		stream:       streamSvc,
		limiter:      middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		reschedule:   handler.NewRescheduleHandler(rescheduleSvc),
		appointments: handler.NewAppointmentHandler(appointmentSvc, streamSvc, cfg.Stream.HeartbeatEvery),
		health:       handler.NewMetricsHandler(metrics, checks),
	}, nil
}

// newStreamService avoids handing a typed nil bus to the service.
func newStreamService(store *repository.AppointmentRepository, bus *repository.SnapshotRepository, cache *service.AppointmentService, metrics *service.MetricsService, cfg config.StreamConfig, logr *zap.Logger) *service.StreamService {
	streamCfg := service.StreamConfig{Workers: cfg.NotifyWorkers, MaxRetries: cfg.NotifyRetries, RetryDelay: cfg.NotifyBackoff}
	if bus == nil {
		return service.NewStreamService(store, nil, cache, metrics, streamCfg, logr)
	}
	return service.NewStreamService(store, bus, cache, metrics, streamCfg, logr)
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, name string, dest interface{}) error
	Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, names ...string) error
}

// CacheService wraps a CacheRepository with hit/miss metrics. Failures are
// logged and reported but never fatal to callers; the store stays the source
// of truth.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get reports whether name was found and decoded into dest.
func (s *CacheService) Get(ctx context.Context, name string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	err := s.repo.Get(ctx, name, dest)
	s.metrics.RecordCacheOperation(err == nil)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", name), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores value under name. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.repo.Set(ctx, name, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", name), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate removes the named entries.
func (s *CacheService) Invalidate(ctx context.Context, names ...string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Delete(ctx, names...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("keys", names), zap.Error(err))
		return err
	}
	return nil
}

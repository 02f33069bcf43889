package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

type cacheRepoStub struct {
	data   map[string]string
	getErr error
	setErr error
	ttl    time.Duration
	delete []string
}

func (s *cacheRepoStub) Get(ctx context.Context, name string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	v, ok := s.data[name]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = v
	return nil
}

func (s *cacheRepoStub) Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[name] = value.(string)
	s.ttl = ttl
	return nil
}

func (s *cacheRepoStub) Delete(ctx context.Context, names ...string) error {
	s.delete = append(s.delete, names...)
	for _, n := range names {
		delete(s.data, n)
	}
	return nil
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &cacheRepoStub{data: map[string]string{"k": "v"}}
	svc := NewCacheService(repo, nil, 0, nil, false)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", "x", 0))
	assert.Equal(t, "v", repo.data["k"])

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Invalidate(context.Background(), "k"))
}

func TestCacheServiceHitMissAndTTL(t *testing.T) {
	repo := &cacheRepoStub{data: map[string]string{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	assert.Equal(t, 30*time.Second, repo.ttl)

	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", out)
	assert.Equal(t, 0.5, metricValue(t, metrics.cacheHitRatio))

	require.NoError(t, svc.Invalidate(ctx, "k"))
	assert.Equal(t, []string{"k"}, repo.delete)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := &cacheRepoStub{data: map[string]string{}, getErr: errors.New("conn reset"), setErr: errors.New("oom")}
	svc := NewCacheService(repo, nil, time.Second, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, svc.Set(context.Background(), "k", "v", 0))
}

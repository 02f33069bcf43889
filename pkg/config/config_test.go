package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Scheduling.OpeningHour)
	assert.Equal(t, 18, cfg.Scheduling.ClosingHour)
	assert.Equal(t, 4, cfg.Scheduling.SlotsPerHour)
	assert.Equal(t, 3, cfg.Scheduling.MaxSuggestions)
	assert.False(t, cfg.Scheduling.LegacyDayScan)
	assert.Equal(t, MatchByPhone, cfg.Scheduling.MatchStrategy)
	assert.Equal(t, "appointments:snapshots", cfg.Stream.Channel)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPENING_HOUR", "8")
	t.Setenv("CLOSING_HOUR", "16")
	t.Setenv("SLOTS_PER_HOUR", "2")
	t.Setenv("MATCH_STRATEGY", "SSN")
	t.Setenv("SCHEDULER_LEGACY_DAY_SCAN", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scheduling.OpeningHour)
	assert.Equal(t, 16, cfg.Scheduling.ClosingHour)
	assert.Equal(t, 2, cfg.Scheduling.SlotsPerHour)
	assert.Equal(t, MatchBySSN, cfg.Scheduling.MatchStrategy)
	assert.True(t, cfg.Scheduling.LegacyDayScan)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Scheduling: SchedulingConfig{OpeningHour: 9, ClosingHour: 18, SlotsPerHour: 4, MaxSuggestions: 3, MatchStrategy: MatchByPhone}}
	}

	require.NoError(t, base().Validate())

	cases := map[string]func(*Config){
		"inverted window":  func(c *Config) { c.Scheduling.OpeningHour = 18; c.Scheduling.ClosingHour = 9 },
		"closing past 24":  func(c *Config) { c.Scheduling.ClosingHour = 25 },
		"slots not divide": func(c *Config) { c.Scheduling.SlotsPerHour = 7 },
		"zero slots":       func(c *Config) { c.Scheduling.SlotsPerHour = 0 },
		"no suggestions":   func(c *Config) { c.Scheduling.MaxSuggestions = 0 },
		"unknown strategy": func(c *Config) { c.Scheduling.MatchStrategy = "email" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Guardian matching strategies.
const (
	MatchByPhone = "phone"
	MatchBySSN   = "ssn"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Cache      CacheConfig
	Stream     StreamConfig
	RateLimit  RateLimitConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig describes the bookable window and how guardians are identified.
type SchedulingConfig struct {
	OpeningHour    int
	ClosingHour    int
	SlotsPerHour   int
	MaxSuggestions int
	LegacyDayScan  bool
	MatchStrategy  string
}

// CacheConfig governs caching of the appointment listing.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// StreamConfig configures snapshot publication for live dashboards.
type StreamConfig struct {
	Channel        string
	NotifyWorkers  int
	NotifyRetries  int
	NotifyBackoff  time.Duration
	HeartbeatEvery time.Duration
}

// RateLimitConfig throttles the public reschedule endpoint per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		OpeningHour:    v.GetInt("OPENING_HOUR"),
		ClosingHour:    v.GetInt("CLOSING_HOUR"),
		SlotsPerHour:   v.GetInt("SLOTS_PER_HOUR"),
		MaxSuggestions: v.GetInt("MAX_SUGGESTIONS"),
		LegacyDayScan:  v.GetBool("SCHEDULER_LEGACY_DAY_SCAN"),
		MatchStrategy:  strings.ToLower(strings.TrimSpace(v.GetString("MATCH_STRATEGY"))),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_APPOINTMENTS_CACHE"),
		TTL:     parseDuration(v.GetString("APPOINTMENTS_CACHE_TTL"), 30*time.Second),
	}

	cfg.Stream = StreamConfig{
		Channel:        v.GetString("SNAPSHOT_CHANNEL"),
		NotifyWorkers:  v.GetInt("NOTIFY_WORKERS"),
		NotifyRetries:  v.GetInt("NOTIFY_RETRIES"),
		NotifyBackoff:  parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), time.Second),
		HeartbeatEvery: parseDuration(v.GetString("STREAM_HEARTBEAT"), 15*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		Burst: v.GetInt("RATE_LIMIT_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects scheduling settings the slot logic cannot work with.
func (c *Config) Validate() error {
	s := c.Scheduling
	if s.OpeningHour < 0 || s.ClosingHour > 24 || s.OpeningHour >= s.ClosingHour {
		return fmt.Errorf("invalid working hours: opening %d, closing %d", s.OpeningHour, s.ClosingHour)
	}
	if s.SlotsPerHour <= 0 || 60%s.SlotsPerHour != 0 {
		return fmt.Errorf("slots per hour must divide 60, got %d", s.SlotsPerHour)
	}
	if s.MaxSuggestions <= 0 {
		return fmt.Errorf("max suggestions must be positive, got %d", s.MaxSuggestions)
	}
	switch s.MatchStrategy {
	case MatchByPhone, MatchBySSN:
	default:
		return fmt.Errorf("unknown match strategy %q", s.MatchStrategy)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_appointments")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OPENING_HOUR", 9)
	v.SetDefault("CLOSING_HOUR", 18)
	v.SetDefault("SLOTS_PER_HOUR", 4)
	v.SetDefault("MAX_SUGGESTIONS", 3)
	v.SetDefault("SCHEDULER_LEGACY_DAY_SCAN", false)
	v.SetDefault("MATCH_STRATEGY", MatchByPhone)

	v.SetDefault("ENABLE_APPOINTMENTS_CACHE", true)
	v.SetDefault("APPOINTMENTS_CACHE_TTL", "30s")

	v.SetDefault("SNAPSHOT_CHANNEL", "appointments:snapshots")
	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "1s")
	v.SetDefault("STREAM_HEARTBEAT", "15s")

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

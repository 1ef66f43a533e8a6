package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server         ServerConfig
	JWT            JWTConfig
	Postgres       PostgresConfig
	Redis          RedisConfig
	RateLimiter    RateLimiterConfig
	CircuitBreaker CircuitBreakerConfig
	Bulkhead       BulkheadConfig
	Area           AreaConfig
	Tracking       TrackingConfig
	Sync           SyncConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

type PostgresConfig struct {
	URL      string // DATABASE_URL takes precedence if set
	Host     string
	Port     int
	User     string
	Password string
	DB       string
	SSLMode  string
}

type RedisConfig struct {
	URL      string // REDIS_URL takes precedence if set
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimiterConfig struct {
	MaxRequests   int
	WindowSeconds int
}

type CircuitBreakerConfig struct {
	FailureThreshold int
	CooldownSeconds  int
}

type BulkheadConfig struct {
	LocationPool int
	MutationPool int
	BoardPool    int
}

// AreaConfig bounds the delivery service area around the restaurant.
type AreaConfig struct {
	CenterLat float64
	CenterLng float64
	RadiusM   float64
}

type TrackingConfig struct {
	AccuracyThresholdM  float64
	MinSendIntervalSec  int
	MovementThresholdM  float64
	HeartbeatPeriodSec  int
	LocationCacheTTLSec int
	IdempotencyTTLSec   int
}

type SyncConfig struct {
	PollIntervalSec int
	PageLimit       int
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvInt("PORT", getenvInt("SERVER_PORT", 8080)),
			ShutdownTimeout: time.Duration(getenvInt("SHUTDOWN_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:      getenv("JWT_SECRET", "default-secret-change-me"),
			ExpiryHours: time.Duration(getenvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		},
		Postgres: PostgresConfig{
			URL:      getenv("DATABASE_URL", ""),
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     getenvInt("POSTGRES_PORT", 5432),
			User:     getenv("POSTGRES_USER", "pos_dispatch"),
			Password: getenv("POSTGRES_PASSWORD", "secure_password"),
			DB:       getenv("POSTGRES_DB", "pos_dispatch"),
			SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getenv("REDIS_URL", ""),
			Host:     getenv("REDIS_HOST", "localhost"),
			Port:     getenvInt("REDIS_PORT", 6379),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		RateLimiter: RateLimiterConfig{
			MaxRequests:   getenvInt("RATE_LIMIT_MAX_REQUESTS", 100),
			WindowSeconds: getenvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: getenvInt("CB_FAILURE_THRESHOLD", 5),
			CooldownSeconds:  getenvInt("CB_COOLDOWN_SECONDS", 30),
		},
		Bulkhead: BulkheadConfig{
			LocationPool: getenvInt("BULKHEAD_LOCATION_POOL", 100),
			MutationPool: getenvInt("BULKHEAD_MUTATION_POOL", 50),
			BoardPool:    getenvInt("BULKHEAD_BOARD_POOL", 20),
		},
		Area: AreaConfig{
			CenterLat: getenvFloat("AREA_CENTER_LAT", 54.46),
			CenterLng: getenvFloat("AREA_CENTER_LNG", 17.02),
			RadiusM:   getenvFloat("AREA_RADIUS_M", 80000),
		},
		Tracking: TrackingConfig{
			AccuracyThresholdM:  getenvFloat("TRACKING_ACCURACY_THRESHOLD_M", 50),
			MinSendIntervalSec:  getenvInt("TRACKING_MIN_SEND_INTERVAL_SECONDS", 5),
			MovementThresholdM:  getenvFloat("TRACKING_MOVEMENT_THRESHOLD_M", 8),
			HeartbeatPeriodSec:  getenvInt("TRACKING_HEARTBEAT_PERIOD_SECONDS", 20),
			LocationCacheTTLSec: getenvInt("LOCATION_CACHE_TTL_SECONDS", 60),
			IdempotencyTTLSec:   getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
		},
		Sync: SyncConfig{
			PollIntervalSec: getenvInt("SYNC_POLL_INTERVAL_SECONDS", 10),
			PageLimit:       getenvInt("SYNC_PAGE_LIMIT", 50),
		},
	}

	return cfg, nil
}

func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	VerifyBaseURL string
	JWTSigningKey string
}

// RedisConfig holds connection settings for the statistics cache.
// An empty URL means Redis is not configured and caching is skipped.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StatsCacheTTL bounds how stale the cached verification statistics may be.
var StatsCacheTTL = 1 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CERTIFYNOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	verifyBase := os.Getenv("CERTIFYNOW_VERIFY_BASE_URL")
	if verifyBase == "" {
		verifyBase = "https://certifynow.uz/verify"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		PostgresDSN:   os.Getenv("CERTIFYNOW_POSTGRES_DSN"),
		Redis:         redisFromEnv(),
		VerifyBaseURL: verifyBase,
		JWTSigningKey: jwtSigningKey,
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("CERTIFYNOW_REDIS_URL"),
		PoolSize:     intFromEnv("CERTIFYNOW_REDIS_POOL_SIZE", 10),
		MinIdleConns: intFromEnv("CERTIFYNOW_REDIS_MIN_IDLE", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionType   auth.SessionType
	JWTSecret     string
	TokenTTL      time.Duration
	CookieSecret  string
	SessionSecret string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	CORSOrigins        []string
	OTLPEndpoint       string
	TraceSampleRatio   float64
	RateLimitPerMinute int
	MaxBodyBytes       int64
	WorkerHealthPort   int
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Load reads an optional .env file and then the process environment. The
// result is built once at startup and passed by value from there on.
func Load() (Config, error) {
	_ = godotenv.Load()

	sessionType, err := auth.ParseSessionType(getEnv("SESSION_TYPE", string(auth.SessionBearer)))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SessionType:   sessionType,
		JWTSecret:     getEnv("JWT_SECRET", "dev-jwt-secret-change-me"),
		TokenTTL:      time.Duration(getEnvInt("JWT_EXPIRES_IN_DAYS", 30)) * 24 * time.Hour,
		CookieSecret:  getEnv("COOKIE_SECRET", "dev-cookie-secret-change-me"),
		SessionSecret: getEnv("SESSION_SECRET", "dev-session-secret-change-me"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		CORSOrigins:        splitList(getEnv("FRONTEND_URL", "http://localhost:5173")),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRatio:   getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 10<<10)),
		WorkerHealthPort:   getEnvInt("WORKER_HEALTH_PORT", 8081),
	}

	if cfg.IsProd() {
		if os.Getenv("JWT_SECRET") == "" || os.Getenv("COOKIE_SECRET") == "" || os.Getenv("SESSION_SECRET") == "" {
			return Config{}, fmt.Errorf("config: JWT_SECRET, COOKIE_SECRET and SESSION_SECRET are required in %s", cfg.Env)
		}
	}

	return cfg, nil
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "shopsphere")
	pass := getEnv("DB_PASSWORD", "shopsphere")
	name := getEnv("DB_NAME", "shopsphere")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}

		return f
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

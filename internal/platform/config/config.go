package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "dashgate/pkg/platform/strings"
)

// Config is the whole process configuration, read once at startup.
type Config struct {
	Server   Server
	Identity Identity
	Session  Session
	Flow     Flow
	Redis    RedisConfig
	Database DatabaseConfig
	LogLevel string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
	// AdminPrefixes are the route prefixes that require the admin role.
	AdminPrefixes []string
	CookieSecure  bool
}

// Identity configures the hosted identity provider's backend API.
type Identity struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	// BreakerThreshold consecutive failures open the breaker for BreakerCooldown.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Session configures verification of provider-issued session tokens.
// Exactly one of PublicKeyPEM (RS256) or Secret (HS256) is expected.
type Session struct {
	PublicKeyPEM string
	Secret       string
	Issuer       string
	CookieName   string
	Leeway       time.Duration
}

// Flow configures server-held flow state (sign-up drafts, reset steps, avatar previews).
type Flow struct {
	CookieName string
	TTL        time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// IsProduction gates settings that must never run with development defaults.
func (c Config) IsProduction() bool { return c.Server.Environment == "production" }

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Server: Server{
			Addr:            envString("DASHGATE_ADDR", ":8080"),
			Environment:     envString("ENVIRONMENT", "development"),
			RequestTimeout:  envDuration("REQUEST_TIMEOUT", 30*time.Second, &errs),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
			TrustedProxies:  envList("TRUSTED_PROXIES", nil),
			AdminPrefixes:   envList("ADMIN_ROUTE_PREFIXES", []string{"/admin"}),
			CookieSecure:    envBool("COOKIE_SECURE", true, &errs),
		},
		Identity: Identity{
			BaseURL:          strings.TrimRight(envString("IDENTITY_API_URL", "http://localhost:9000"), "/"),
			SecretKey:        os.Getenv("IDENTITY_SECRET_KEY"),
			Timeout:          envDuration("IDENTITY_TIMEOUT", 10*time.Second, &errs),
			BreakerThreshold: envInt("IDENTITY_BREAKER_THRESHOLD", 5, &errs),
			BreakerCooldown:  envDuration("IDENTITY_BREAKER_COOLDOWN", 30*time.Second, &errs),
		},
		Session: Session{
			PublicKeyPEM: os.Getenv("SESSION_JWT_PUBLIC_KEY"),
			Secret:       os.Getenv("SESSION_JWT_SECRET"),
			Issuer:       os.Getenv("SESSION_JWT_ISSUER"),
			CookieName:   envString("SESSION_COOKIE_NAME", "__session"),
			Leeway:       envDuration("SESSION_JWT_LEEWAY", 5*time.Second, &errs),
		},
		Flow: Flow{
			CookieName: envString("FLOW_COOKIE_NAME", "flow_id"),
			TTL:        envDuration("FLOW_TTL", 15*time.Minute, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25, &errs),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute, &errs),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
	}

	if cfg.Session.PublicKeyPEM == "" && cfg.Session.Secret == "" {
		if cfg.IsProduction() {
			errs = append(errs, errors.New("SESSION_JWT_PUBLIC_KEY or SESSION_JWT_SECRET is required in production"))
		} else {
			cfg.Session.Secret = "dev-session-secret-change-in-production"
		}
	}
	if cfg.IsProduction() && cfg.Identity.SecretKey == "" {
		errs = append(errs, errors.New("IDENTITY_SECRET_KEY is required in production"))
	}
	if cfg.Flow.TTL <= 0 {
		errs = append(errs, errors.New("FLOW_TTL must be positive"))
	}

	return cfg, errors.Join(errs...)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func envInt(key string, def int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func envBool(key string, def bool, errs *[]error) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// envList splits a comma-separated variable, dropping blanks and duplicates.
func envList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	return pstrings.SplitList(raw)
}

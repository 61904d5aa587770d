package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Server     ServerConfig
	OAuth      OAuthConfig
	EDGAR      EDGARConfig
	AI         AIConfig
	Slack      SlackConfig
	SelfHosted bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Redis is optional: when Addr
// is empty the filing cache stays process-local and the activity feed only
// reaches clients connected to the same instance.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// OAuthConfig holds OAuth2 sign-in settings. A provider is enabled when its
// client ID is non-empty.
type OAuthConfig struct {
	GoogleClientID        string
	GoogleClientSecret    string
	MicrosoftClientID     string
	MicrosoftClientSecret string
	RedirectBaseURL       string
}

// EDGARConfig holds SEC EDGAR lookup settings. SEC requires a descriptive
// User-Agent identifying the requester.
type EDGARConfig struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	CacheTTL     time.Duration
	CacheEntries int
}

// AIConfig holds deal-scoring provider settings.
type AIConfig struct {
	BaseURL     string
	APIKey      string //nolint:gosec // G117: provider credential config
	Model       string
	Timeout     time.Duration
	AnalysisTTL time.Duration
}

// SlackConfig holds optional deal-event notification settings.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("SPACOS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("SPACOS_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("SPACOS_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("SPACOS_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("SPACOS_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("SPACOS_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("SPACOS_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	edgarTimeout, err := getEnvDuration("SPACOS_EDGAR_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	edgarCacheTTL, err := getEnvDuration("SPACOS_EDGAR_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	edgarCacheEntries, err := getEnvInt("SPACOS_EDGAR_CACHE_ENTRIES", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	aiTimeout, err := getEnvDuration("SPACOS_AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	analysisTTL, err := getEnvDuration("SPACOS_AI_ANALYSIS_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	selfHosted, err := getEnvBool("SPACOS_SELF_HOSTED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("SPACOS_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("SPACOS_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("SPACOS_DB_USER", "spacos"),
			Password: getEnv("SPACOS_DB_PASSWORD", ""),
			DBName:   getEnv("SPACOS_DB_NAME", "spacos_dev"),
			SSLMode:  getEnv("SPACOS_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("SPACOS_REDIS_ADDR", ""),
			Password: getEnv("SPACOS_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("SPACOS_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("SPACOS_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		OAuth: OAuthConfig{
			GoogleClientID:        getEnv("SPACOS_OAUTH_GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:    getEnv("SPACOS_OAUTH_GOOGLE_CLIENT_SECRET", ""),
			MicrosoftClientID:     getEnv("SPACOS_OAUTH_MICROSOFT_CLIENT_ID", ""),
			MicrosoftClientSecret: getEnv("SPACOS_OAUTH_MICROSOFT_CLIENT_SECRET", ""),
			RedirectBaseURL:       getEnv("SPACOS_OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
		},
		EDGAR: EDGARConfig{
			BaseURL:      getEnv("SPACOS_EDGAR_BASE_URL", "https://data.sec.gov"),
			UserAgent:    getEnv("SPACOS_EDGAR_USER_AGENT", "spacos dev@localhost"),
			Timeout:      edgarTimeout,
			CacheTTL:     edgarCacheTTL,
			CacheEntries: edgarCacheEntries,
		},
		AI: AIConfig{
			BaseURL:     getEnv("SPACOS_AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("SPACOS_AI_API_KEY", ""),
			Model:       getEnv("SPACOS_AI_MODEL", "gpt-4o-mini"),
			Timeout:     aiTimeout,
			AnalysisTTL: analysisTTL,
		},
		Slack: SlackConfig{
			BotToken: getEnv("SPACOS_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("SPACOS_SLACK_CHANNEL", ""),
		},
		SelfHosted: selfHosted,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("SPACOS_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("SPACOS_JWT_SECRET must be at least 32 characters")
	}

	// DB SSL mode warning for non-self-hosted deployments.
	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg("SPACOS_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("SPACOS_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("SPACOS_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("SPACOS_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("SPACOS_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("SPACOS_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("SPACOS_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.EDGAR.CacheEntries < 1 {
		return fmt.Errorf("SPACOS_EDGAR_CACHE_ENTRIES must be >= 1, got %d", c.EDGAR.CacheEntries)
	}
	if c.EDGAR.CacheTTL <= 0 {
		return fmt.Errorf("SPACOS_EDGAR_CACHE_TTL must be positive, got %s", c.EDGAR.CacheTTL)
	}
	if c.AI.AnalysisTTL <= 0 {
		return fmt.Errorf("SPACOS_AI_ANALYSIS_TTL must be positive, got %s", c.AI.AnalysisTTL)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

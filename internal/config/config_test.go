package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "SPACOS_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "SPACOS_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "SPACOS_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "SPACOS_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "SPACOS_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "returns fallback for empty string", key: "SPACOS_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "SPACOS_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "SPACOS_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "SPACOS_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses minutes", key: "SPACOS_TEST_DUR_MIN", setVal: strPtr("15m"), fallback: 0, want: 15 * time.Minute},
		{name: "parses composite", key: "SPACOS_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "errors on invalid", key: "SPACOS_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "SPACOS_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback []string
		want     []string
	}{
		{name: "returns fallback when unset", key: "SPACOS_TEST_LIST_UNSET", setVal: nil, fallback: []string{"a"}, want: []string{"a"}},
		{name: "splits on comma", key: "SPACOS_TEST_LIST_SPLIT", setVal: strPtr("x,y,z"), fallback: nil, want: []string{"x", "y", "z"}},
		{name: "trims whitespace", key: "SPACOS_TEST_LIST_WS", setVal: strPtr(" x , y "), fallback: nil, want: []string{"x", "y"}},
		{name: "drops empty segments", key: "SPACOS_TEST_LIST_EMPTYSEG", setVal: strPtr("x,,y,"), fallback: nil, want: []string{"x", "y"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnvList(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

func TestLoad_MissingJWTSecret(t *testing.T) {
	// All defaults apply; JWT secret is empty => must fail.
	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SPACOS_JWT_SECRET")
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("SPACOS_JWT_SECRET", "too-short")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		errMsg string
	}{
		// DB_PORT parse and bounds errors
		{name: "DB_PORT not a number", envKey: "SPACOS_DB_PORT", envVal: "abc", errMsg: "SPACOS_DB_PORT"},
		{name: "DB_PORT zero", envKey: "SPACOS_DB_PORT", envVal: "0", errMsg: "SPACOS_DB_PORT"},
		{name: "DB_PORT too high", envKey: "SPACOS_DB_PORT", envVal: "65536", errMsg: "SPACOS_DB_PORT"},

		// DB_MAX_CONNS
		{name: "DB_MAX_CONNS zero", envKey: "SPACOS_DB_MAX_CONNS", envVal: "0", errMsg: "SPACOS_DB_MAX_CONNS"},
		{name: "DB_MAX_CONNS not a number", envKey: "SPACOS_DB_MAX_CONNS", envVal: "many", errMsg: "SPACOS_DB_MAX_CONNS"},

		// JWT durations
		{name: "JWT_ACCESS_TTL invalid", envKey: "SPACOS_JWT_ACCESS_TTL", envVal: "badval", errMsg: "SPACOS_JWT_ACCESS_TTL"},
		{name: "JWT_ACCESS_TTL zero", envKey: "SPACOS_JWT_ACCESS_TTL", envVal: "0s", errMsg: "SPACOS_JWT_ACCESS_TTL"},
		{name: "JWT_REFRESH_TTL negative", envKey: "SPACOS_JWT_REFRESH_TTL", envVal: "-1h", errMsg: "SPACOS_JWT_REFRESH_TTL"},

		// Server timeouts
		{name: "SERVER_READ_TIMEOUT zero", envKey: "SPACOS_SERVER_READ_TIMEOUT", envVal: "0s", errMsg: "SPACOS_SERVER_READ_TIMEOUT"},
		{name: "SERVER_WRITE_TIMEOUT invalid", envKey: "SPACOS_SERVER_WRITE_TIMEOUT", envVal: "notduration", errMsg: "SPACOS_SERVER_WRITE_TIMEOUT"},

		// Redis DB
		{name: "REDIS_DB not a number", envKey: "SPACOS_REDIS_DB", envVal: "abc", errMsg: "SPACOS_REDIS_DB"},

		// Filing cache bounds
		{name: "EDGAR_CACHE_ENTRIES zero", envKey: "SPACOS_EDGAR_CACHE_ENTRIES", envVal: "0", errMsg: "SPACOS_EDGAR_CACHE_ENTRIES"},
		{name: "EDGAR_CACHE_TTL zero", envKey: "SPACOS_EDGAR_CACHE_TTL", envVal: "0s", errMsg: "SPACOS_EDGAR_CACHE_TTL"},

		// Analysis cache bounds
		{name: "AI_ANALYSIS_TTL zero", envKey: "SPACOS_AI_ANALYSIS_TTL", envVal: "0s", errMsg: "SPACOS_AI_ANALYSIS_TTL"},

		// Self-hosted
		{name: "SELF_HOSTED not a bool", envKey: "SPACOS_SELF_HOSTED", envVal: "yes", errMsg: "SPACOS_SELF_HOSTED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Always set JWT secret so failures are from the var under test.
			t.Setenv("SPACOS_JWT_SECRET", "test-secret-for-error-cases-32ch!")
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	// Only the required JWT secret is set; everything else uses defaults.
	t.Setenv("SPACOS_JWT_SECRET", "my-dev-secret-at-least-32-chars!!")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Database defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "spacos", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "spacos_dev", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxConns)

	// Redis is off by default.
	assert.Empty(t, cfg.Redis.Addr)

	// JWT defaults.
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)

	// Server defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)

	// EDGAR defaults.
	assert.Equal(t, "https://data.sec.gov", cfg.EDGAR.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.EDGAR.CacheTTL)
	assert.Equal(t, 100, cfg.EDGAR.CacheEntries)

	// Scoring defaults.
	assert.Equal(t, 24*time.Hour, cfg.AI.AnalysisTTL)
	assert.Empty(t, cfg.AI.APIKey)

	// Slack defaults.
	assert.Empty(t, cfg.Slack.BotToken)
	assert.Empty(t, cfg.Slack.Channel)

	// OAuth providers are off by default.
	assert.Empty(t, cfg.OAuth.GoogleClientID)
	assert.Empty(t, cfg.OAuth.MicrosoftClientID)

	assert.False(t, cfg.SelfHosted)
}

func TestLoad_AllCustomValues(t *testing.T) {
	envs := map[string]string{
		// Database
		"SPACOS_DB_HOST":      "db.prod.internal",
		"SPACOS_DB_PORT":      "5433",
		"SPACOS_DB_USER":      "prod_user",
		"SPACOS_DB_PASSWORD":  "s3cret!",
		"SPACOS_DB_NAME":      "spacos_prod",
		"SPACOS_DB_SSLMODE":   "require",
		"SPACOS_DB_MAX_CONNS": "50",
		// Redis
		"SPACOS_REDIS_ADDR":     "redis.prod:6380",
		"SPACOS_REDIS_PASSWORD": "redis-pass",
		"SPACOS_REDIS_DB":       "3",
		// JWT
		"SPACOS_JWT_SECRET":      "prod-jwt-secret-256-bits-long!!!",
		"SPACOS_JWT_ACCESS_TTL":  "30m",
		"SPACOS_JWT_REFRESH_TTL": "72h",
		// Server
		"SPACOS_SERVER_ADDR":          ":9090",
		"SPACOS_SERVER_READ_TIMEOUT":  "5s",
		"SPACOS_SERVER_WRITE_TIMEOUT": "15s",
		"SPACOS_CORS_ORIGINS":         "https://app.spacos.io,https://staging.spacos.io",
		// EDGAR
		"SPACOS_EDGAR_BASE_URL":      "http://edgar-proxy:9000",
		"SPACOS_EDGAR_USER_AGENT":    "spacos ops@spacos.io",
		"SPACOS_EDGAR_CACHE_TTL":     "2m",
		"SPACOS_EDGAR_CACHE_ENTRIES": "250",
		// Scoring
		"SPACOS_AI_BASE_URL":     "http://llm-gateway:8000/v1",
		"SPACOS_AI_API_KEY":      "sk-test",
		"SPACOS_AI_MODEL":        "gpt-4o",
		"SPACOS_AI_ANALYSIS_TTL": "48h",
		// Slack
		"SPACOS_SLACK_BOT_TOKEN": "xoxb-test",
		"SPACOS_SLACK_CHANNEL":   "C0DEALS",
		// OAuth
		"SPACOS_OAUTH_GOOGLE_CLIENT_ID":     "google-id",
		"SPACOS_OAUTH_GOOGLE_CLIENT_SECRET": "google-secret",
		"SPACOS_OAUTH_REDIRECT_BASE_URL":    "https://app.spacos.io",
		// Self-hosted
		"SPACOS_SELF_HOSTED": "true",
	}

	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "db.prod.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxConns)

	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)

	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 72*time.Hour, cfg.JWT.RefreshTTL)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://app.spacos.io", "https://staging.spacos.io"}, cfg.Server.CORSOrigins)

	assert.Equal(t, "http://edgar-proxy:9000", cfg.EDGAR.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.EDGAR.CacheTTL)
	assert.Equal(t, 250, cfg.EDGAR.CacheEntries)

	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 48*time.Hour, cfg.AI.AnalysisTTL)

	assert.Equal(t, "xoxb-test", cfg.Slack.BotToken)
	assert.Equal(t, "C0DEALS", cfg.Slack.Channel)

	assert.Equal(t, "google-id", cfg.OAuth.GoogleClientID)
	assert.True(t, cfg.SelfHosted)
}

// ---------------------------------------------------------------------------
// DSN
// ---------------------------------------------------------------------------

func TestDSN(t *testing.T) {
	t.Parallel()

	c := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "spacos",
		Password: "pw",
		DBName:   "spacos_dev",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=localhost port=5432 user=spacos password=pw dbname=spacos_dev sslmode=disable", c.DSN())
}

// ---------------------------------------------------------------------------
// Test helper
// ---------------------------------------------------------------------------

func strPtr(s string) *string {
	return &s
}

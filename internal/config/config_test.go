package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GROQ_API_KEY", "OPENAI_API_KEY", "TAVILY_API_KEY", "SERVER_ADDR", "UI_ADDR",
		"BACKEND_URL", "EXCHANGE_DB", "AGENT_MAX_ITERATIONS", "RATE_LIMIT_PER_MINUTE",
		"AGENT_TIMEOUT", "MODEL_CATALOG", "EXCHANGE_RETENTION",
	} {
		t.Setenv(k, "")
	}
	// Keep godotenv from picking up a developer's .env.
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.ServerAddr)
	assert.Equal(t, "127.0.0.1:8501", cfg.UIAddr)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Zero(t, cfg.AgentTimeout)
	assert.Equal(t, DefaultCatalog(), cfg.Catalog)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENT_TIMEOUT", "90s")
	t.Setenv("AGENT_MAX_ITERATIONS", "4")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("EXCHANGE_RETENTION", "72h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.AgentTimeout)
	assert.Equal(t, 4, cfg.MaxIterations)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 72*time.Hour, cfg.ExchangeRetention)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "AGENT_TIMEOUT", value: "soon"},
		{key: "AGENT_MAX_ITERATIONS", value: "many"},
		{key: "RATE_LIMIT_PER_MINUTE", value: "not-a-number"},
		{key: "EXCHANGE_RETENTION", value: "a week"},
		{key: "EXCHANGE_RETENTION", value: "-1h"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GROQ_API_KEY")
	require.NoError(t, os.WriteFile(".env", []byte("GROQ_API_KEY=from-dotenv\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.GroqAPIKey)
}

func TestRequireCredentials(t *testing.T) {
	cfg := &Config{GroqAPIKey: "g"}

	err := cfg.RequireCredentials()
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorContains(t, errs[0], "OPENAI_API_KEY")
	assert.ErrorContains(t, errs[1], "TAVILY_API_KEY")

	cfg.OpenAIAPIKey, cfg.TavilyAPIKey = "o", "t"
	assert.NoError(t, cfg.RequireCredentials())
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Catalog
		wantErr string
	}{
		{
			name: "valid",
			data: "Groq: [llama-3.1-8b-instant]\nOpenAI: [gpt-4o, gpt-4o-mini]\n",
			want: Catalog{
				models.ProviderGroq:   {"llama-3.1-8b-instant"},
				models.ProviderOpenAI: {"gpt-4o", "gpt-4o-mini"},
			},
		},
		{name: "unknown provider", data: "Groq: [a]\nOpenAI: [b]\nMistral: [c]\n", wantErr: "unsupported provider"},
		{name: "missing provider", data: "Groq: [a]\n", wantErr: "missing provider OpenAI"},
		{name: "empty list", data: "Groq: []\nOpenAI: [b]\n", wantErr: "no models listed"},
		{name: "not yaml", data: "::::", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCatalog([]byte(tt.data))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadCatalogFromEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Groq: [x]\nOpenAI: [y]\n"), 0o600))
	t.Setenv("MODEL_CATALOG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, cfg.Catalog[models.ProviderGroq])
}

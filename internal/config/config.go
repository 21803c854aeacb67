package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Credentials
	GroqAPIKey   string
	OpenAIAPIKey string
	TavilyAPIKey string

	// Server
	ServerAddr         string
	AgentTimeout       time.Duration
	MaxIterations      int
	RateLimitPerMinute int
	ExchangeDB         string
	// ExchangeRetention is how long logged exchanges are kept. Zero keeps them forever.
	ExchangeRetention time.Duration

	// UI
	UIAddr     string
	BackendURL string

	Catalog Catalog
}

// Catalog maps each provider to the model identifiers offered in the UI.
type Catalog map[models.Provider][]string

func DefaultCatalog() Catalog {
	return Catalog{
		models.ProviderGroq:   {"llama-3.3-70b-versatile", "mixtral-8x7b-32768"},
		models.ProviderOpenAI: {"gpt-4o-mini"},
	}
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),
		ServerAddr:   getEnvOrDefault("SERVER_ADDR", "127.0.0.1:8000"),
		UIAddr:       getEnvOrDefault("UI_ADDR", "127.0.0.1:8501"),
		BackendURL:   os.Getenv("BACKEND_URL"),
		ExchangeDB:   os.Getenv("EXCHANGE_DB"),
		Catalog:      DefaultCatalog(),
	}

	var err error
	if cfg.MaxIterations, err = getEnvAsIntOrDefault("AGENT_MAX_ITERATIONS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.AgentTimeout, err = getEnvAsDurationOrDefault("AGENT_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.ExchangeRetention, err = getEnvAsDurationOrDefault("EXCHANGE_RETENTION", 0); err != nil {
		return nil, err
	}

	if path := os.Getenv("MODEL_CATALOG"); path != "" {
		catalog, err := LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = catalog
	}

	return cfg, nil
}

// RequireCredentials reports every missing secret at once.
func (c *Config) RequireCredentials() error {
	var err error
	for _, s := range []struct{ name, value string }{
		{"GROQ_API_KEY", c.GroqAPIKey},
		{"OPENAI_API_KEY", c.OpenAIAPIKey},
		{"TAVILY_API_KEY", c.TavilyAPIKey},
	} {
		if s.value == "" {
			err = multierr.Append(err, fmt.Errorf("%s is not set", s.name))
		}
	}
	return err
}

// LoadCatalog reads a YAML file of the form
//
//	Groq: [llama-3.3-70b-versatile]
//	OpenAI: [gpt-4o-mini]
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog: %w", err)
	}

	catalog := Catalog{}
	for name, ids := range raw {
		p, err := models.ParseProvider(name)
		if err != nil {
			return nil, fmt.Errorf("model catalog: %w", err)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("model catalog: no models listed for %s", p)
		}
		catalog[p] = ids
	}
	for _, p := range models.Providers {
		if _, ok := catalog[p]; !ok {
			return nil, errors.New("model catalog: missing provider " + string(p))
		}
	}
	return catalog, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, val)
	}
	return d, nil
}

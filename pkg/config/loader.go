package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingCredentials = errors.New("missing required credentials")

// defaultModels is used when generation.model is not set.
var defaultModels = map[string]string{
	"gemini":    "gemini-2.5-flash",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-20250514",
}

// providerKeyEnvs lists, in order, the variables read for each provider's
// key when generation.api_key is not set explicitly.
var providerKeyEnvs = map[string][]string{
	"gemini":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// Load reads config.yaml from the given directories (or the default search
// path), then overlays environment variables. A .env file in the working
// directory is loaded first when present.
func Load(paths ...string) (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", ".", "/app/configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The conventional variable names work without the APP_ prefix.
	v.BindEnv("http.port", "APP_HTTP_PORT", "HTTP_PORT")
	v.BindEnv("sarvam.api_key", "APP_SARVAM_API_KEY", "SARVAM_API_KEY")
	v.BindEnv("generation.api_key", "APP_GENERATION_API_KEY")
	v.BindEnv("redis.url", "APP_REDIS_URL", "REDIS_URL")
	v.BindEnv("events.url", "APP_EVENTS_URL", "NATS_URL")
	v.BindEnv("vault.address", "APP_VAULT_ADDRESS", "VAULT_ADDR")
	v.BindEnv("vault.token", "APP_VAULT_TOKEN", "VAULT_TOKEN")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "APP_LOGGING_LEVEL", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Generation.Model == "" {
		cfg.Generation.Model = defaultModels[cfg.Generation.Provider]
	}
	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = providerKey(cfg.Generation.Provider)
	}

	return &cfg, nil
}

// providerKey returns the first non-empty key variable of the provider.
// Another provider's key is never used.
func providerKey(provider string) string {
	for _, name := range providerKeyEnvs[provider] {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "healthvoice")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 60*time.Second)
	v.SetDefault("http.write_timeout", 150*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.body_limit", 25*1024*1024)

	v.SetDefault("sarvam.api_key", "")
	v.SetDefault("sarvam.base_url", "https://api.sarvam.ai")
	v.SetDefault("sarvam.timeout", 30*time.Second)
	v.SetDefault("sarvam.voice.speaker", "meera")
	v.SetDefault("sarvam.voice.pitch", 0.0)
	v.SetDefault("sarvam.voice.pace", 1.0)
	v.SetDefault("sarvam.voice.loudness", 1.5)
	v.SetDefault("sarvam.voice.sample_rate", 8000)
	v.SetDefault("sarvam.voice.enable_preprocessing", true)
	v.SetDefault("sarvam.voice.model", "bulbul:v1")
	v.SetDefault("sarvam.voice.max_chars", 500)

	v.SetDefault("generation.provider", "gemini")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.model", "")
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.timeout", 60*time.Second)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.sarvam_path", "secret/data/sarvam")
	v.SetDefault("vault.generation_path", "secret/data/gemini")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.url", "")
	v.SetDefault("events.subject", "healthvoice.interactions")

	v.SetDefault("opentelemetry.enabled", false)
	v.SetDefault("opentelemetry.service_name", "healthvoice")
	v.SetDefault("opentelemetry.jaeger.endpoint", "http://jaeger:14268/api/traces")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.max_requests", 30)
	v.SetDefault("rate_limiting.window", time.Minute)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.min_requests", 5)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 86400)
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Sarvam.APIKey == "" {
		missing = append(missing, "SARVAM_API_KEY")
	}
	if c.Generation.APIKey == "" {
		missing = append(missing, c.GenerationKeyEnv())
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: please set %s in your .env file or environment",
			ErrMissingCredentials, strings.Join(missing, " and "))
	}

	switch c.Generation.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported generation provider %q", c.Generation.Provider)
	}

	switch c.Events.Driver {
	case "", "none", "nats", "rabbitmq":
	default:
		return fmt.Errorf("unsupported events driver %q", c.Events.Driver)
	}

	return nil
}

// GenerationKeyEnv names the environment variable expected to carry the
// generation API key for the configured provider.
func (c *Config) GenerationKeyEnv() string {
	switch c.Generation.Provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "GOOGLE_API_KEY"
	}
}

package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for askretail-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Engine configuration (embedded DuckDB over the data directory)
	Engine EngineConfig `yaml:"engine"`

	// AI Smart Mode configuration
	AI AIConfig `yaml:"ai"`

	// Confidence scoring constants
	Confidence ConfidenceConfig `yaml:"confidence"`
}

// EngineConfig holds settings for the embedded data engine.
type EngineConfig struct {
	// DataDir is where Customer/Inventory/Detail/Pricelist CSV or Parquet
	// files live.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`

	// QueryTimeoutMs bounds the primary answer query.
	QueryTimeoutMs int `yaml:"query_timeout_ms" env:"ENGINE_QUERY_TIMEOUT_MS" env-default:"2000"`

	// AIQueryTimeoutMs bounds execution of AI-generated SQL.
	AIQueryTimeoutMs int `yaml:"ai_query_timeout_ms" env:"ENGINE_AI_QUERY_TIMEOUT_MS" env-default:"3000"`

	// LookupTimeoutMs bounds short defaulting lookups (data horizon, sample
	// ids, customer name resolution).
	LookupTimeoutMs int `yaml:"lookup_timeout_ms" env:"ENGINE_LOOKUP_TIMEOUT_MS" env-default:"1000"`

	// MaxRows is the LIMIT ceiling enforced on classic-mode SQL.
	MaxRows int `yaml:"max_rows" env:"ENGINE_MAX_ROWS" env-default:"1000"`

	// AIMaxRows is the LIMIT ceiling enforced on AI-generated SQL.
	AIMaxRows int `yaml:"ai_max_rows" env:"ENGINE_AI_MAX_ROWS" env-default:"200"`

	// CacheTTLSeconds is how long repeated identical query results are
	// served from cache. A datasource refresh invalidates regardless.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" env:"ENGINE_CACHE_TTL_SECONDS" env-default:"300"`

	// FallbackHorizon is the anchor date used for relative date phrases
	// when the data horizon cannot be determined from the Inventory table.
	// ISO date (YYYY-MM-DD).
	FallbackHorizon string `yaml:"fallback_horizon" env:"ENGINE_FALLBACK_HORIZON" env-default:"2024-08-31"`
}

// AIConfig holds settings for the LLM generation collaborator.
type AIConfig struct {
	// BaseURL of an OpenAI-compatible endpoint (OpenRouter, vLLM, etc.).
	BaseURL string `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://openrouter.ai/api/v1"`

	// Model is the primary generation model.
	Model string `yaml:"model" env:"AI_MODEL" env-default:"openai/gpt-oss-120b"`

	// FallbackModel is tried when the primary model fails.
	FallbackModel string `yaml:"fallback_model" env:"AI_FALLBACK_MODEL" env-default:"openai/gpt-4o-mini"`

	// APIKey for the OpenAI-compatible endpoint. Secret - not in YAML.
	APIKey string `yaml:"-" env:"AI_API_KEY"`

	// AnthropicAPIKey enables the Anthropic provider as the last resort in
	// the fallback chain. Secret - not in YAML.
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`

	// AnthropicModel used when AnthropicAPIKey is set.
	AnthropicModel string `yaml:"anthropic_model" env:"AI_ANTHROPIC_MODEL" env-default:"claude-3-5-haiku-latest"`

	// TimeoutSeconds bounds a single generation request.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"12"`

	// MaxTokens caps the generation response size.
	MaxTokens int `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"800"`
}

// ConfidenceConfig holds the scoring constants. These are heuristic tuning
// values carried from production; override rather than editing code.
type ConfidenceConfig struct {
	Baseline            float64 `yaml:"baseline" env:"CONFIDENCE_BASELINE" env-default:"0.75"`
	ValidationPenalty   float64 `yaml:"validation_penalty" env:"CONFIDENCE_VALIDATION_PENALTY" env-default:"0.3"`
	EmptyResultPenalty  float64 `yaml:"empty_result_penalty" env:"CONFIDENCE_EMPTY_RESULT_PENALTY" env-default:"0.5"`
	OrphanPenalty       float64 `yaml:"orphan_penalty" env:"CONFIDENCE_ORPHAN_PENALTY" env-default:"0.1"`
	MissingPricePenalty float64 `yaml:"missing_price_penalty" env:"CONFIDENCE_MISSING_PRICE_PENALTY" env-default:"0.1"`
	NegativePenalty     float64 `yaml:"negative_penalty" env:"CONFIDENCE_NEGATIVE_PENALTY" env-default:"0.15"`
	NullDatePenalty     float64 `yaml:"null_date_penalty" env:"CONFIDENCE_NULL_DATE_PENALTY" env-default:"0.05"`
	OrphanThreshold     float64 `yaml:"orphan_threshold" env:"CONFIDENCE_ORPHAN_THRESHOLD" env-default:"0.1"`
	NullDateThreshold   float64 `yaml:"null_date_threshold" env:"CONFIDENCE_NULL_DATE_THRESHOLD" env-default:"0.05"`
	Floor               float64 `yaml:"floor" env:"CONFIDENCE_FLOOR" env-default:"0.1"`
	Ceiling             float64 `yaml:"ceiling" env:"CONFIDENCE_CEILING" env-default:"1.0"`
}

// QueryTimeout returns the primary query timeout as a duration.
func (c *EngineConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMs) * time.Millisecond
}

// AIQueryTimeout returns the AI-path query timeout as a duration.
func (c *EngineConfig) AIQueryTimeout() time.Duration {
	return time.Duration(c.AIQueryTimeoutMs) * time.Millisecond
}

// LookupTimeout returns the defaulting-lookup timeout as a duration.
func (c *EngineConfig) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutMs) * time.Millisecond
}

// CacheTTL returns the query cache TTL as a duration.
func (c *EngineConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Timeout returns the generation request timeout as a duration.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. When config.yaml is absent, defaults plus environment
// variables apply.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// A missing config file is fine; fall back to env + defaults.
		if envErr := cleanenv.ReadEnv(cfg); envErr != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", envErr)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.MaxRows < 1 {
		return fmt.Errorf("engine.max_rows must be positive, got %d", c.Engine.MaxRows)
	}
	if c.Engine.AIMaxRows < 1 {
		return fmt.Errorf("engine.ai_max_rows must be positive, got %d", c.Engine.AIMaxRows)
	}
	if _, err := time.Parse("2006-01-02", c.Engine.FallbackHorizon); err != nil {
		return fmt.Errorf("engine.fallback_horizon must be an ISO date: %w", err)
	}
	if c.Confidence.Floor > c.Confidence.Ceiling {
		return fmt.Errorf("confidence.floor %v exceeds ceiling %v", c.Confidence.Floor, c.Confidence.Ceiling)
	}
	return nil
}

// FallbackHorizonDate parses the configured fallback horizon. validate
// guarantees this cannot fail after Load.
func (c *EngineConfig) FallbackHorizonDate() time.Time {
	t, _ := time.Parse("2006-01-02", c.FallbackHorizon)
	return t
}

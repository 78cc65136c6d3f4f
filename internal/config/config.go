package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/easyasset/eam-backend/internal/domain"
)

// Config holds application configuration
type Config struct {
	DBDriver   string // postgres or sqlite
	DBConnStr  string
	SQLitePath string

	HTTPPort int
	GRPCPort int

	// APITokens maps a bearer token to the owner it authenticates
	APITokens map[string]string

	LogLevel  string
	LogPretty bool

	LLMProvider     string // gateway, gemini or none
	LLMBaseURL      string
	LLMAPIKey       string
	LLMContentPath  string
	LLMFastModel    string
	LLMQualityModel string
	LLMTimeout      time.Duration
	GeminiAPIKey    string
	AIConcurrency   int

	PriceCacheTTL     time.Duration
	QuoteSyncSchedule string
	ReportSchedule    string

	TracingEnabled bool

	TargetsFile string
	Targets     domain.TierTargets
	// OwnerTargets overrides Targets for individual owners
	OwnerTargets map[string]domain.TierTargets
	Prompt       PromptConfig
}

// Load reads configuration from environment variables and the optional targets file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBConnStr:         getEnv("DB_CONN_STR", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/eam.db"),
		HTTPPort:          getEnvAsInt("HTTP_PORT", 8000),
		GRPCPort:          getEnvAsInt("GRPC_PORT", 8080),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "gateway")),
		LLMBaseURL:        strings.TrimRight(getEnv("LLM_BASE_URL", "http://localhost:3000/v1"), "/"),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMContentPath:    getEnv("LLM_CONTENT_PATH", "$.data.choices[0].message.content"),
		LLMFastModel:      getEnv("LLM_FAST_MODEL", "gemini-2.5-flash"),
		LLMQualityModel:   getEnv("LLM_QUALITY_MODEL", "gemini-2.5-pro"),
		LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		AIConcurrency:     getEnvAsInt("AI_CONCURRENCY", 4),
		PriceCacheTTL:     getEnvAsDuration("PRICE_CACHE_TTL", 5*time.Minute),
		QuoteSyncSchedule: getEnv("QUOTE_SYNC_SCHEDULE", "0 30 16 * * MON-FRI"),
		ReportSchedule:    getEnv("REPORT_SCHEDULE", "0 0 18 * * MON-FRI"),
		TracingEnabled:    getEnvAsBool("TRACING_ENABLED", false),
		TargetsFile:       getEnv("EAM_TARGETS_FILE", ""),
		Targets:           domain.DefaultTierTargets(),
		OwnerTargets:      map[string]domain.TierTargets{},
		Prompt:            DefaultPromptConfig(),
	}

	if cfg.DBConnStr == "" && cfg.DBDriver == "postgres" {
		cfg.DBConnStr = postgresConnStr()
	}

	tokens, err := parseTokens(getEnv("API_TOKENS", "dev:dev-token"))
	if err != nil {
		return nil, err
	}
	cfg.APITokens = tokens

	if cfg.TargetsFile != "" {
		if err := cfg.loadTargetsFile(cfg.TargetsFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DBConnStr == "" {
			return fmt.Errorf("DB_CONN_STR is required for postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: must be postgres or sqlite", c.DBDriver)
	}

	if err := validPort("HTTP_PORT", c.HTTPPort); err != nil {
		return err
	}
	if err := validPort("GRPC_PORT", c.GRPCPort); err != nil {
		return err
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP_PORT and GRPC_PORT must differ")
	}

	if len(c.APITokens) == 0 {
		return fmt.Errorf("API_TOKENS must define at least one owner:token pair")
	}

	switch c.LLMProvider {
	case "gateway", "gemini", "none":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q: must be gateway, gemini or none", c.LLMProvider)
	}
	if c.AIConcurrency < 1 {
		return fmt.Errorf("AI_CONCURRENCY must be at least 1")
	}
	if c.PriceCacheTTL <= 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must be positive")
	}

	if err := c.Targets.Validate(); err != nil {
		return fmt.Errorf("default targets: %w", err)
	}
	for owner, targets := range c.OwnerTargets {
		if err := targets.Validate(); err != nil {
			return fmt.Errorf("targets for %s: %w", owner, err)
		}
	}

	return nil
}

// Owners returns every owner that has an API token, sorted
func (c *Config) Owners() []string {
	seen := make(map[string]bool, len(c.APITokens))
	owners := make([]string, 0, len(c.APITokens))
	for _, owner := range c.APITokens {
		if !seen[owner] {
			seen[owner] = true
			owners = append(owners, owner)
		}
	}
	sort.Strings(owners)
	return owners
}

// TargetsFor returns the configured default targets for an owner
func (c *Config) TargetsFor(owner string) domain.TierTargets {
	if t, ok := c.OwnerTargets[owner]; ok {
		return t
	}
	return c.Targets
}

// DSN returns the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.DBConnStr
}

func postgresConnStr() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "eam"),
	)
}

// parseTokens reads "owner:token,owner:token"
func parseTokens(raw string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		owner, token, ok := strings.Cut(pair, ":")
		owner, token = strings.TrimSpace(owner), strings.TrimSpace(token)
		if !ok || owner == "" || token == "" {
			return nil, fmt.Errorf("invalid API_TOKENS entry %q: expected owner:token", pair)
		}
		if existing, dup := tokens[token]; dup && existing != owner {
			return nil, fmt.Errorf("API token assigned to both %s and %s", existing, owner)
		}
		tokens[token] = owner
	}
	return tokens, nil
}

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

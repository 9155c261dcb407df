package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort string `validate:"required,numeric"`
	ServerHost string

	// Logging configuration
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// Recipe store configuration
	RecipeStore   string `validate:"oneof=neo4j postgres sqlite"`
	Neo4jURI      string `validate:"required_if=RecipeStore neo4j"`
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Database configuration
	DBHost     string `validate:"required_if=RecipeStore postgres"`
	DBPort     string `validate:"required_if=RecipeStore postgres"`
	DBUser     string
	DBPassword string
	DBName     string `validate:"required_if=RecipeStore postgres"`
	DBSSLMode  string
	SQLitePath string `validate:"required_if=RecipeStore sqlite"`

	// Session configuration
	SessionBackend string        `validate:"oneof=memory redis"`
	SessionTTL     time.Duration `validate:"gt=0"`

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// NLP configuration
	DeepSeekAPIKey  string
	DeepSeekAPIURL  string `validate:"omitempty,url"`
	DeepSeekModel   string
	HFAPIToken      string
	HFAPIURL        string        `validate:"omitempty,url"`
	ClassifierModel string        `validate:"required"`
	TagThreshold    float64       `validate:"gt=0,lte=1"`
	TagMatch        string        `validate:"oneof=all any"`
	ExternalTimeout time.Duration `validate:"gt=0"`
	FlairEnabled    bool

	// HTTP edge configuration
	CORSOrigins        []string
	RateLimitPerMinute int `validate:"gte=0"`
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	cfg := &Config{Environment: GetEnvironment()}

	if err := load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", cfg.Environment, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(cfg *Config) error {
	var err error

	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	logFormat := "console"
	if cfg.Environment == Production || cfg.Environment == CI {
		logFormat = "json"
	}
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", logFormat))

	cfg.RecipeStore = strings.ToLower(getEnv("RECIPE_STORE", "neo4j"))
	cfg.Neo4jURI = getEnv("NEO4J_URI", "neo4j://localhost:7687")
	cfg.Neo4jUser = getEnv("NEO4J_USER", "neo4j")
	cfg.Neo4jPassword = readSecret("NEO4J_PASSWORD")
	cfg.Neo4jDatabase = getEnv("NEO4J_DATABASE", "")

	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = readSecretOr("DB_USER", "postgres")
	cfg.DBPassword = readSecret("DB_PASSWORD")
	cfg.DBName = getEnv("DB_NAME", "recipes")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "recipes.db")

	cfg.SessionBackend = strings.ToLower(getEnv("SESSION_BACKEND", "memory"))
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return err
	}

	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisPassword = readSecret("REDIS_PASSWORD")
	cfg.RedisURL = readSecret("REDIS_URL")
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return err
	}

	cfg.DeepSeekAPIKey = readSecret("DEEPSEEK_API_KEY")
	cfg.DeepSeekAPIURL = getEnv("DEEPSEEK_API_URL", "")
	cfg.DeepSeekModel = getEnv("DEEPSEEK_MODEL", "")
	cfg.HFAPIToken = readSecret("HF_API_TOKEN")
	cfg.HFAPIURL = getEnv("HF_API_URL", "")
	cfg.ClassifierModel = getEnv("CLASSIFIER_MODEL", "facebook/bart-large-mnli")
	if cfg.TagThreshold, err = getFloat("TAG_THRESHOLD", 0.8); err != nil {
		return err
	}
	cfg.TagMatch = strings.ToLower(getEnv("TAG_MATCH", "all"))
	if cfg.ExternalTimeout, err = getDuration("EXTERNAL_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	if cfg.FlairEnabled, err = getBool("FLAIR_ENABLED", false); err != nil {
		return err
	}

	cfg.CORSOrigins = getList("CORS_ORIGINS", []string{"*"})
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return err
	}

	return nil
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// ServerAddr returns the address the HTTP server listens on.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// PostgresDSN builds the connection string for the relational recipe store.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid integer %q", v)}
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid number %q", v)}
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, ValidationError{Field: key, Message: fmt.Sprintf("invalid boolean %q", v)}
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid duration %q", v)}
	}
	return d, nil
}

func getList(key string, fallback []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readSecret resolves a credential from, in order: the environment variable,
// the file named by <KEY>_FILE, and the Docker secret <key> in SECRETS_DIR.
func readSecret(key string) string {
	if v := getEnv(key, ""); v != "" {
		return v
	}
	if path := getEnv(key+"_FILE", ""); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, strings.ToLower(key))
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func readSecretOr(key, fallback string) string {
	if v := readSecret(key); v != "" {
		return v
	}
	return fallback
}

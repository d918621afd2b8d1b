package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store modes
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// CORSConfig controls the cross-origin headers of the REST API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// Config holds runtime settings for the server and the seed tool
type Config struct {
	HTTPPort           string
	Store              string
	MongoURI           string
	MongoDatabase      string
	RedisAddr          string // empty disables caching and analytics
	JWTSecret          string
	AuthorUsername     string
	AuthorPassword     string
	LogMode            string
	CORS               CORSConfig
	StepCacheTTL       time.Duration
	AuthorTokenTTL     time.Duration
	RespondentTokenTTL time.Duration
	ShutdownTimeout    time.Duration
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		HTTPPort:       "8080",
		Store:          StoreMongo,
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "quizfunnel",
		RedisAddr:      "localhost:6379",
		JWTSecret:      "dev-secret-change-in-production",
		AuthorUsername: "admin",
		AuthorPassword: "admin",
		LogMode:        "dev",
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		StepCacheTTL:       5 * time.Minute,
		AuthorTokenTTL:     24 * time.Hour,
		RespondentTokenTTL: 7 * 24 * time.Hour,
		ShutdownTimeout:    30 * time.Second,
	}
}

type yamlConfig struct {
	HTTPPort           string     `yaml:"http_port"`
	Store              string     `yaml:"store"`
	MongoURI           string     `yaml:"mongo_uri"`
	MongoDatabase      string     `yaml:"mongo_database"`
	RedisAddr          *string    `yaml:"redis_addr"`
	JWTSecret          string     `yaml:"jwt_secret"`
	AuthorUsername     string     `yaml:"author_username"`
	AuthorPassword     string     `yaml:"author_password"`
	LogMode            string     `yaml:"log_mode"`
	CORS               CORSConfig `yaml:"cors"`
	StepCacheTTL       string     `yaml:"step_cache_ttl"`
	AuthorTokenTTL     string     `yaml:"author_token_ttl"`
	RespondentTokenTTL string     `yaml:"respondent_token_ttl"`
	ShutdownTimeout    string     `yaml:"shutdown_timeout"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	cfg.RedisAddr = normalizeRedisAddr(cfg.RedisAddr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.HTTPPort, y.HTTPPort)
	setString(&c.Store, y.Store)
	setString(&c.MongoURI, y.MongoURI)
	setString(&c.MongoDatabase, y.MongoDatabase)
	if y.RedisAddr != nil {
		c.RedisAddr = *y.RedisAddr
	}
	setString(&c.JWTSecret, y.JWTSecret)
	setString(&c.AuthorUsername, y.AuthorUsername)
	setString(&c.AuthorPassword, y.AuthorPassword)
	setString(&c.LogMode, y.LogMode)
	if len(y.CORS.AllowedOrigins) > 0 {
		c.CORS.AllowedOrigins = y.CORS.AllowedOrigins
	}
	if len(y.CORS.AllowedMethods) > 0 {
		c.CORS.AllowedMethods = y.CORS.AllowedMethods
	}
	if len(y.CORS.AllowedHeaders) > 0 {
		c.CORS.AllowedHeaders = y.CORS.AllowedHeaders
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"step_cache_ttl", y.StepCacheTTL, &c.StepCacheTTL},
		{"author_token_ttl", y.AuthorTokenTTL, &c.AuthorTokenTTL},
		{"respondent_token_ttl", y.RespondentTokenTTL, &c.RespondentTokenTTL},
		{"shutdown_timeout", y.ShutdownTimeout, &c.ShutdownTimeout},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
	}
	return nil
}

func (c *Config) mergeEnv() error {
	c.HTTPPort = getEnv("PORT", c.HTTPPort)
	c.Store = getEnv("STORE", c.Store)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.RedisAddr = getEnv("REDIS_URI", c.RedisAddr)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.AuthorUsername = getEnv("AUTHOR_USERNAME", c.AuthorUsername)
	c.AuthorPassword = getEnv("AUTHOR_PASSWORD", c.AuthorPassword)
	c.LogMode = getEnv("LOG_MODE", c.LogMode)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORS.AllowedOrigins = splitList(origins)
	}
	if os.Getenv("REDIS_DISABLED") == "true" {
		c.RedisAddr = ""
	}

	if err := setDuration(&c.StepCacheTTL, os.Getenv("STEP_CACHE_TTL")); err != nil {
		return fmt.Errorf("invalid STEP_CACHE_TTL: %w", err)
	}
	if err := setDuration(&c.RespondentTokenTTL, os.Getenv("RESPONDENT_TOKEN_TTL")); err != nil {
		return fmt.Errorf("invalid RESPONDENT_TOKEN_TTL: %w", err)
	}
	return nil
}

// Validate checks that the configuration can run a server
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http port must be set")
	}
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("mongo store needs mongo_uri and mongo_database")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %q or %q)", c.Store, StoreMongo, StoreMemory)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be set")
	}
	if c.StepCacheTTL <= 0 || c.AuthorTokenTTL <= 0 || c.RespondentTokenTTL <= 0 {
		return fmt.Errorf("ttls must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// Remove redis:// prefix if present
func normalizeRedisAddr(addr string) string {
	return strings.TrimPrefix(addr, "redis://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries every setting the server needs, resolved once at startup
// and passed explicitly to component constructors.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	DatabaseURL string `yaml:"database_url"`
	JWKSURL     string `yaml:"jwks_url"`
	CORSOrigins string `yaml:"cors_origins"`
	TablePrefix string `yaml:"table_prefix"`

	// PublicBaseURL is the prefix share links are built from
	PublicBaseURL string `yaml:"public_base_url"`

	ShareTTL   time.Duration `yaml:"share_ttl"`
	PresignTTL time.Duration `yaml:"presign_ttl"`

	Storage StorageConfig `yaml:"storage"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// StorageConfig configures the S3-compatible object store holding file bytes
type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // empty = AWS default
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	KeyPrefix       string `yaml:"key_prefix"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// SMTPConfig configures outbound notification mail
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Load builds the configuration from environment variables, optionally
// overlaid by a YAML file named in CONFIG_FILE. File values win over env
// values so a deployment can pin its settings in one place.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   env,
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWKSURL:       getEnv("JWKS_URL", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:   getTablePrefix(env),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		ShareTTL:      getDurationEnv("SHARE_TTL", DefaultShareTTL),
		PresignTTL:    getDurationEnv("PRESIGN_TTL", DefaultPresignTTL),
		Storage: StorageConfig{
			Bucket:          getEnv("STORAGE_BUCKET", ""),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			KeyPrefix:       getEnv("STORAGE_KEY_PREFIX", ""),
			ForcePathStyle:  getEnv("STORAGE_FORCE_PATH_STYLE", "") == "true",
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := cfg.overlayFile(file); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// overlayFile merges a YAML config file over the current values
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

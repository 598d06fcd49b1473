// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a single Config value that is built once at startup
// and passed down to every component that needs it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by the application wiring.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Process settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// Document store
	StoreBackend     string
	Region           string
	DynamoDBEndpoint string // optional, for DynamoDB Local
	ProjectsTable    string
	BlogPostsTable   string
	UsersTable       string
	SlugIndex        string
	UsernameIndex    string

	// PostgreSQL (STORE_BACKEND=postgres)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Object storage for uploads
	UploadBucket string
	UploadPrefix string
	S3Endpoint   string // optional S3-compatible endpoint (path-style)
	S3AccessKey  string
	S3SecretKey  string
	S3PublicURL  string // optional CDN/base URL for uploaded objects

	// Authentication
	JWTSecret         string
	AdminPasswordHash string
	TokenTTL          time.Duration

	// Uploads
	MaxUploadBytes int64
	UploadURLTTL   time.Duration

	// CORS
	AllowedOrigins []string

	// Valkey response cache (optional)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	CacheTTL       time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first if present. Returns an error if a value cannot be parsed
// or if critical values are missing in production mode.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		StoreBackend:     envOrDefault("STORE_BACKEND", BackendDynamoDB),
		Region:           envOrDefault("AWS_REGION", "us-east-2"),
		DynamoDBEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
		ProjectsTable:    envOrDefault("PROJECTS_TABLE", "portfolio-projects"),
		BlogPostsTable:   envOrDefault("BLOG_POSTS_TABLE", "portfolio-blog-posts"),
		UsersTable:       envOrDefault("USERS_TABLE", "portfolio-users"),
		SlugIndex:        envOrDefault("SLUG_INDEX", "slug-index"),
		UsernameIndex:    envOrDefault("USERNAME_INDEX", "username-index"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "portfolio"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "portfolio"),

		UploadBucket: os.Getenv("UPLOAD_BUCKET"),
		UploadPrefix: strings.Trim(envOrDefault("UPLOAD_PREFIX", "uploads"), "/"),
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),
		S3AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("S3_SECRET_KEY"),
		S3PublicURL:  os.Getenv("S3_PUBLIC_URL"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		AllowedOrigins: splitList(envOrDefault("ALLOWED_ORIGINS", "*")),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
	}

	var err error
	if cfg.TokenTTL, err = durationOrDefault("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.UploadURLTTL, err = durationOrDefault("UPLOAD_URL_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationOrDefault("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = intOrDefault("MAX_UPLOAD_BYTES", 10<<20); err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case BackendDynamoDB, BackendPostgres, BackendMemory:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of dynamodb, postgres, memory (got %q)", cfg.StoreBackend)
	}

	if cfg.Env == "production" {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.UploadBucket == "" {
			return nil, fmt.Errorf("UPLOAD_BUCKET must be set in production")
		}
		if cfg.StoreBackend == BackendPostgres && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CacheEnabled reports whether a Valkey host was configured.
func (c *Config) CacheEnabled() bool {
	return c.ValkeyHost != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}

func intOrDefault(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

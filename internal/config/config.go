// Package config provides configuration management for the horsemen prediction pipeline.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/yourusername/horsemen/internal/stats"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Model    ModelConfig    `mapstructure:"model" validate:"required"`
	Scorer   ScorerConfig   `mapstructure:"scorer" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Output   OutputConfig   `mapstructure:"output" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ModelConfig locates the versioned model directories
type ModelConfig struct {
	Root    string       `mapstructure:"root" validate:"required"`
	Version string       `mapstructure:"version" validate:"required"`
	Files   LayoutConfig `mapstructure:"files"`
}

// LayoutConfig overrides artifact file names inside a version directory.
// Blank entries keep the default name.
type LayoutConfig struct {
	Model            string `mapstructure:"model"`
	Sire             string `mapstructure:"sire"`
	BroodmareSire    string `mapstructure:"broodmare_sire"`
	Jockey           string `mapstructure:"jockey"`
	Trainer          string `mapstructure:"trainer"`
	Breeder          string `mapstructure:"breeder"`
	CoursePostStats  string `mapstructure:"course_post_stats"`
	CoursePostCounts string `mapstructure:"course_post_counts"`
}

// ScorerConfig selects and tunes the classifier backend
type ScorerConfig struct {
	Kind            string  `mapstructure:"kind" validate:"required,scorerkind"`
	URL             string  `mapstructure:"url" validate:"required_if=Kind http,omitempty,url"`
	GRPCAddress     string  `mapstructure:"grpc_address" validate:"required_if=Kind grpc"`
	UseTLS          bool    `mapstructure:"use_tls"`
	APIKey          string  `mapstructure:"api_key"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries      int     `mapstructure:"max_retries" validate:"gte=0"`
	RetryWaitMinMs  int     `mapstructure:"retry_wait_min_ms" validate:"gte=0"`
	RetryWaitMaxMs  int     `mapstructure:"retry_wait_max_ms" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	CacheMaxSize    int     `mapstructure:"cache_max_size" validate:"gte=0"`
}

// PipelineConfig tunes the prediction run
type PipelineConfig struct {
	Workers    int    `mapstructure:"workers" validate:"required,gt=0,lte=64"`
	HeaderMode string `mapstructure:"header_mode" validate:"required,oneof=auto true false"`
}

// OutputConfig controls where run results are written
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"required,outputformat"`
	Path   string `mapstructure:"path"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port         int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout  int `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeout int `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	MaxUploadMB  int `mapstructure:"max_upload_mb" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// ScheduleConfig drives the watch command
type ScheduleConfig struct {
	Cron      string `mapstructure:"cron" validate:"omitempty,cronspec"`
	InputPath string `mapstructure:"input_path"`
}

// SecretsConfig points at an AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region" validate:"required_if=Enabled true"`
	Name    string `mapstructure:"name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + c.Database.SSLMode,
	}
	return u.String()
}

// ScorerTimeout returns the per-request scorer timeout
func (c *Config) ScorerTimeout() time.Duration {
	return time.Duration(c.Scorer.TimeoutSeconds) * time.Second
}

// CacheEnabled reports whether the scorer should be wrapped in a prediction cache
func (c *ScorerConfig) CacheEnabled() bool {
	return c.CacheTTLSeconds > 0
}

// Layout returns the artifact layout with configured overrides applied
func (m *ModelConfig) Layout() stats.Layout {
	layout := stats.DefaultLayout()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&layout.Model, m.Files.Model)
	override(&layout.Sire, m.Files.Sire)
	override(&layout.BroodmareSire, m.Files.BroodmareSire)
	override(&layout.Jockey, m.Files.Jockey)
	override(&layout.Trainer, m.Files.Trainer)
	override(&layout.Breeder, m.Files.Breeder)
	override(&layout.CoursePostStats, m.Files.CoursePostStats)
	override(&layout.CoursePostCounts, m.Files.CoursePostCounts)
	return layout
}

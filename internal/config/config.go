package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Model artifact sources
const (
	ModelSourceFile     = "file"
	ModelSourcePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Model      ModelConfig
	PostgreSQL PostgreSQLConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  []string
	ShutdownTimeout int // seconds
}

// ModelConfig selects the artifact loaded at startup
type ModelConfig struct {
	Source string // file or postgres
	Path   string // used when Source is file
	Name   string // row name when Source is postgres
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from .env, an optional config.yaml and the environment
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return build(v)
}

// LoadFromFile reads configuration from a specific YAML file plus the environment
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("gin.mode", "release")
	v.SetDefault("cors.allowed_origins", "*")

	v.SetDefault("model.source", ModelSourceFile)
	v.SetDefault("model.path", "models/house_price_model.json")
	v.SetDefault("model.name", "best_house_price_model")

	_ = v.BindEnv("pg.dsn", "DATABASE_URL", "POSTGRESQL_URI", "PG_DSN")
	v.SetDefault("pg.host", "localhost")
	v.SetDefault("pg.port", 5432)
	v.SetDefault("pg.user", "postgres")
	v.SetDefault("pg.database", "house_price")
	v.SetDefault("pg.sslmode", "disable")
	v.SetDefault("pg.max_connections", 5)
	v.SetDefault("pg.max_idle_connections", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	return v
}

func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			Host:            v.GetString("server.host"),
			GinMode:         v.GetString("gin.mode"),
			AllowedOrigins:  splitList(v.GetString("cors.allowed_origins")),
			ShutdownTimeout: v.GetInt("server.shutdown_timeout"),
		},
		Model: ModelConfig{
			Source: strings.ToLower(v.GetString("model.source")),
			Path:   v.GetString("model.path"),
			Name:   v.GetString("model.name"),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                v.GetString("pg.dsn"),
			Host:               v.GetString("pg.host"),
			Port:               v.GetInt("pg.port"),
			User:               v.GetString("pg.user"),
			Password:           v.GetString("pg.password"),
			Database:           v.GetString("pg.database"),
			SSLMode:            v.GetString("pg.sslmode"),
			MaxConnections:     v.GetInt("pg.max_connections"),
			MaxIdleConnections: v.GetInt("pg.max_idle_connections"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks fields that would otherwise fail late
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Model.Source {
	case ModelSourceFile:
		if c.Model.Path == "" {
			return fmt.Errorf("model.path is required when model.source is %s", ModelSourceFile)
		}
	case ModelSourcePostgres:
		if c.Model.Name == "" {
			return fmt.Errorf("model.name is required when model.source is %s", ModelSourcePostgres)
		}
		if c.PostgreSQL.DSN == "" && c.PostgreSQL.Host == "" {
			return fmt.Errorf("pg.dsn or pg.host is required when model.source is %s", ModelSourcePostgres)
		}
	default:
		return fmt.Errorf("unsupported model.source %q", c.Model.Source)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

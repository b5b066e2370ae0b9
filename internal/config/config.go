package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Storage    Storage    `mapstructure:"storage"`
	Kafka      Kafka      `mapstructure:"kafka"`
	Retry      Retry      `mapstructure:"retry"`
	Upload     Upload     `mapstructure:"upload"`
	Processing Processing `mapstructure:"processing"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort       string   `mapstructure:"http_port"`       // HTTP port to listen on
	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS origins, "*" allows any
}

// Database holds database master and slave configuration.
type Database struct {
	Master DatabaseNode   `mapstructure:"master"`
	Slaves []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"` // apply migrations on startup
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Storage holds configuration for the S3-compatible object store.
type Storage struct {
	Endpoint       string `mapstructure:"endpoint"`
	PublicEndpoint string `mapstructure:"public_endpoint"` // host clients upload to, defaults to Endpoint
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	BucketName     string `mapstructure:"bucket_name"`
	Region         string `mapstructure:"region"`
	UseSSL         bool   `mapstructure:"use_ssl"`
}

// Kafka holds configuration for the Kafka message queue.
type Kafka struct {
	GroupID string   `mapstructure:"group_id"` // Consumer group ID
	Topic   string   `mapstructure:"topic"`    // Kafka topic name
	Brokers []string `mapstructure:"brokers"`  // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Upload configures upload intent issuance.
type Upload struct {
	Apps   []string      `mapstructure:"apps"`    // applications allowed to own images
	URLTTL time.Duration `mapstructure:"url_ttl"` // validity of a presigned PUT url
}

// Processing configures derivative generation.
type Processing struct {
	CropSize   int     `mapstructure:"crop_size"`
	InlineSize int     `mapstructure:"inline_size"`
	Quality    float32 `mapstructure:"quality"` // lossy WebP quality, 0..100
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.master.ssl_mode", "disable")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", time.Second)
	v.SetDefault("retry.backoff", 2.0)
	v.SetDefault("upload.url_ttl", 120*time.Second)
	v.SetDefault("processing.crop_size", 300)
	v.SetDefault("processing.inline_size", 64)
	v.SetDefault("processing.quality", 80)
}

// bindEnv binds secrets and connection settings to environment variables.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",
		"storage.endpoint":     "S3_ENDPOINT",
		"storage.access_key":   "S3_ACCESS_KEY",
		"storage.secret_key":   "S3_SECRET_KEY",
		"storage.bucket_name":  "S3_BUCKET",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	return nil
}

// Load reads the YAML configuration at path, applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Storage.PublicEndpoint == "" {
		cfg.Storage.PublicEndpoint = cfg.Storage.Endpoint
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}

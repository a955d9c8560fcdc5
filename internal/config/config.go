package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`

	// resource store backend: "postgres" or "firestore"
	StoreBackend string `toml:"store_backend"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// firestore
	FirestoreProjectID       string `toml:"firestore_project_id"`
	FirestoreCredentialsFile string `toml:"firestore_credentials_file"`

	// identity provider: "oidc" or "static" (HS256 dev tokens)
	AuthProvider    string `toml:"auth_provider"`
	OIDCProviderURL string `toml:"oidc_provider_url"`
	OIDCClientID    string `toml:"oidc_client_id"`

	// redis (register endpoint rate limiting)
	RedisHost                     string `toml:"redis_host"`
	RedisPort                     string `toml:"redis_port"`
	RegisterRateLimitAllowedPerMin int   `toml:"register_rate_limit_allowed_per_min"`

	// workout events (kafka), disabled when no brokers set
	EventsBrokers []string `toml:"events_brokers"`
	EventsTopic   string   `toml:"events_topic"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	TracingEnabled bool `toml:"tracing_enabled"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s is empty", env)
	}

	cfg.Environment = env

	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "postgres"
	}
	if cfg.AuthProvider == "" {
		cfg.AuthProvider = "oidc"
	}
	if cfg.RegisterRateLimitAllowedPerMin <= 0 {
		cfg.RegisterRateLimitAllowedPerMin = 10
	}

	return cfg, nil
}

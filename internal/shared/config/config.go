package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug      bool
	SentryDSN  string
	Server     ServerConfig
	Database   DatabaseConfig
	Encryption EncryptionConfig
	Plaid      PlaidConfig
	Identity   IdentityConfig
	Ingestion  IngestionConfig
	TLS        TLSConfig
	Telemetry  TelemetryConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	AllowedHosts   []string
	UploadMaxBytes int64
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrateOnStart bool
}

type EncryptionConfig struct {
	Key string
}

type PlaidConfig struct {
	ClientID   string
	Secret     string
	Env        string
	ClientName string
	Timeout    time.Duration
}

// IdentityConfig carries the placeholder user until a real identity provider exists.
type IdentityConfig struct {
	UserID string
}

type IngestionConfig struct {
	ResyncConcurrency int
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	MetricsPort  string
}

// envKeys maps viper keys to the environment variables the service reads.
var envKeys = map[string]string{
	"debug":                        "DEBUG",
	"sentry_dsn":                   "SENTRY_DSN",
	"server.port":                  "PORT",
	"server.host":                  "HOST",
	"server.allowed_hosts":         "ALLOWED_HOSTS",
	"server.upload_max_bytes":      "UPLOAD_MAX_BYTES",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.dbname":              "DB_NAME",
	"database.sslmode":             "DB_SSLMODE",
	"database.migrate_on_start":    "DB_MIGRATE_ON_START",
	"encryption.key":               "ENCRYPTION_KEY",
	"plaid.client_id":              "PLAID_CLIENT_ID",
	"plaid.secret":                 "PLAID_SECRET",
	"plaid.env":                    "PLAID_ENV",
	"plaid.client_name":            "PLAID_CLIENT_NAME",
	"plaid.timeout":                "PLAID_TIMEOUT",
	"identity.user_id":             "MOCK_USER_ID",
	"ingestion.resync_concurrency": "RESYNC_CONCURRENCY",
	"tls.enabled":                  "TLS_ENABLED",
	"tls.cert_path":                "TLS_CERT_PATH",
	"tls.key_path":                 "TLS_KEY_PATH",
	"tls.redirect_http":            "TLS_REDIRECT_HTTP",
	"telemetry.enabled":            "OTEL_ENABLED",
	"telemetry.service_name":       "OTEL_SERVICE_NAME",
	"telemetry.otlp_endpoint":      "OTEL_EXPORTER_ENDPOINT",
	"telemetry.metrics_port":       "METRICS_PORT",
}

// Load reads configuration from an optional YAML file, .env files under
// envPath, and the process environment, in increasing priority.
func Load(configFile, envPath string) (*Config, error) {
	v := configureViper(configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.upload_max_bytes", 5<<20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.dbname", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrate_on_start", false)
	v.SetDefault("plaid.env", "sandbox")
	v.SetDefault("plaid.client_name", "Arena")
	v.SetDefault("plaid.timeout", "30s")
	v.SetDefault("ingestion.resync_concurrency", 4)
	v.SetDefault("telemetry.service_name", "arena-api")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.metrics_port", "9090")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	port, err := parsePositiveInt(v.GetString("database.port"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	concurrency, err := parsePositiveInt(v.GetString("ingestion.resync_concurrency"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESYNC_CONCURRENCY: %w", err)
	}
	timeout, err := time.ParseDuration(v.GetString("plaid.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLAID_TIMEOUT: %w", err)
	}
	uploadMax, err := parsePositiveInt(v.GetString("server.upload_max_bytes"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_BYTES: %w", err)
	}

	cfg := &Config{
		Debug:     v.GetBool("debug"),
		SentryDSN: v.GetString("sentry_dsn"),
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			Host:           v.GetString("server.host"),
			AllowedHosts:   splitList(v.GetString("server.allowed_hosts")),
			UploadMaxBytes: int64(uploadMax),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("database.host"),
			Port:           port,
			User:           v.GetString("database.user"),
			Password:       v.GetString("database.password"),
			DBName:         v.GetString("database.dbname"),
			SSLMode:        v.GetString("database.sslmode"),
			MigrateOnStart: v.GetBool("database.migrate_on_start"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("encryption.key"),
		},
		Plaid: PlaidConfig{
			ClientID:   v.GetString("plaid.client_id"),
			Secret:     v.GetString("plaid.secret"),
			Env:        strings.ToLower(v.GetString("plaid.env")),
			ClientName: v.GetString("plaid.client_name"),
			Timeout:    timeout,
		},
		Identity: IdentityConfig{
			UserID: v.GetString("identity.user_id"),
		},
		Ingestion: IngestionConfig{
			ResyncConcurrency: concurrency,
		},
		TLS: TLSConfig{
			Enabled:      v.GetBool("tls.enabled"),
			CertPath:     v.GetString("tls.cert_path"),
			KeyPath:      v.GetString("tls.key_path"),
			RedirectHTTP: v.GetBool("tls.redirect_http"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("telemetry.enabled"),
			ServiceName:  v.GetString("telemetry.service_name"),
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			MetricsPort:  v.GetString("telemetry.metrics_port"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Encryption.Key == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if len(c.Encryption.Key) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes")
	}
	if c.Identity.UserID == "" {
		return fmt.Errorf("MOCK_USER_ID is required")
	}
	switch c.Plaid.Env {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be one of sandbox, development, production, got %q", c.Plaid.Env)
	}
	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func configureViper(configFile, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}

	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}
	return v
}

func loadEnv(envPath string) {
	if envPath == "" {
		envPath = "."
	}
	for _, name := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(filepath.Join(envPath, name))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%q must be positive", s)
	}
	return n, nil
}

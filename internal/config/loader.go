package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "karuna.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.CORSOrigin, "KARUNA_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "KARUNA_REQUEST_TIMEOUT")

	// Mongo
	setString(&cfg.Mongo.URI, "MONGODB_URI")
	setString(&cfg.Mongo.Database, "KARUNA_MONGO_DATABASE")
	setUint64(&cfg.Mongo.MaxPoolSize, "KARUNA_MONGO_MAX_POOL_SIZE")
	setDuration(&cfg.Mongo.ConnectTimeout, "KARUNA_MONGO_CONNECT_TIMEOUT")
	setDuration(&cfg.Mongo.ServerSelectionTimeout, "KARUNA_MONGO_SERVER_SELECTION_TIMEOUT")
	setDuration(&cfg.Mongo.SocketTimeout, "KARUNA_MONGO_SOCKET_TIMEOUT")

	setDuration(&cfg.Cache.TTL, "KARUNA_CACHE_TTL")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "KARUNA_NATS_SUBJECT")

	// Gemini
	setString(&cfg.Gemini.BaseURL, "KARUNA_GEMINI_BASE_URL")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "KARUNA_GEMINI_MODEL")
	setDuration(&cfg.Gemini.Timeout, "KARUNA_GEMINI_TIMEOUT")

	setDuration(&cfg.Chat.SessionTTL, "KARUNA_CHAT_SESSION_TTL")
	setDuration(&cfg.Chat.SweepInterval, "KARUNA_CHAT_SWEEP_INTERVAL")

	setString(&cfg.Logging.Level, "KARUNA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "KARUNA_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "KARUNA_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "KARUNA_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "KARUNA_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "KARUNA_RATE_RPS")
	setInt(&cfg.Rate.Burst, "KARUNA_RATE_BURST")

	// OpenTelemetry
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTel.Insecure, "KARUNA_OTEL_INSECURE")
	setString(&cfg.OTel.ServiceName, "KARUNA_OTEL_SERVICE_NAME")
}

// validate checks that required fields are set. The Mongo URI is not
// required here: it is read when the first query dials.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Mongo.Database == "" {
		return errors.New("mongo.database is required")
	}
	if cfg.Mongo.MaxPoolSize < 1 {
		return errors.New("mongo.max_pool_size must be >= 1")
	}
	if cfg.Cache.TTL < 0 {
		return errors.New("cache.ttl must be >= 0")
	}
	if cfg.Chat.SessionTTL <= 0 {
		return errors.New("chat.session_ttl must be > 0")
	}
	if cfg.Chat.SweepInterval <= 0 {
		return errors.New("chat.sweep_interval must be > 0")
	}
	if cfg.NATS.URL != "" && cfg.NATS.Subject == "" {
		return errors.New("nats.subject is required when nats.url is set")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

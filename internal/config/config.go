// Package config provides hierarchical configuration loading for Karuna.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the Karuna API server.
type Config struct {
	Server  Server  `yaml:"server"`
	Mongo   Mongo   `yaml:"mongo"`
	Cache   Cache   `yaml:"cache"`
	NATS    NATS    `yaml:"nats"`
	Gemini  Gemini  `yaml:"gemini"`
	Chat    Chat    `yaml:"chat"`
	Logging Logging `yaml:"logging"`
	Breaker Breaker `yaml:"breaker"`
	Rate    Rate    `yaml:"rate"`
	OTel    OTel    `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port           string        `yaml:"port"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Mongo holds MongoDB connection configuration. The pool is kept at a single
// connection with short timeouts; the server is expected to run as
// short-lived instances.
type Mongo struct {
	URI                    string        `yaml:"uri"`
	Database               string        `yaml:"database"`
	MaxPoolSize            uint64        `yaml:"max_pool_size"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout"`
	SocketTimeout          time.Duration `yaml:"socket_timeout"`
}

// Cache holds response cache configuration. A zero TTL disables expiry.
type Cache struct {
	TTL time.Duration `yaml:"ttl"`
}

// NATS holds cache invalidation bus configuration. An empty URL disables it.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Gemini holds generative model client configuration.
type Gemini struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Chat holds conversational session configuration.
type Chat struct {
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for the generative model client.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds per-client rate limiter configuration for LLM-backed routes.
type Rate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OTel holds OpenTelemetry exporter configuration. An empty endpoint
// leaves the global no-op providers in place.
type OTel struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:           "5000",
			CORSOrigin:     "http://localhost:3000",
			RequestTimeout: 60 * time.Second,
		},
		Mongo: Mongo{
			Database:               "karuna",
			MaxPoolSize:            1,
			ConnectTimeout:         10 * time.Second,
			ServerSelectionTimeout: 5 * time.Second,
			SocketTimeout:          45 * time.Second,
		},
		NATS: NATS{
			Subject: "karuna.cache.invalidate",
		},
		Gemini: Gemini{
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.0-flash",
			Timeout: 30 * time.Second,
		},
		Chat: Chat{
			SessionTTL:    10 * time.Minute,
			SweepInterval: time.Minute,
		},
		Logging: Logging{
			Level:   "info",
			Service: "karuna-api",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 2,
			Burst:             5,
		},
		OTel: OTel{
			Insecure:    true,
			ServiceName: "karuna-api",
		},
	}
}

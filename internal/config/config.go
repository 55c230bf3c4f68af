package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

func (s ServerConfig) Address() string { return s.Host + ":" + strconv.FormatInt(int64(s.Port), 10) }

type MySQLConfig struct {
	DSN            string `yaml:"dsn"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	ConnMaxLifeSec int    `yaml:"conn_max_lifetime"`
}

// AuthConfig is the only source of token parameters. It is constructed here
// once and handed to the token issuer; business logic never reads the
// environment.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
	Output string `yaml:"output"` // stdout|stderr|file path
	// file rotation, effective only when Output is a file path
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Exporter    string  `yaml:"exporter"` // stdout|otlp
	SampleRatio float64 `yaml:"sample_ratio"`
	OTLP        struct {
		Endpoint string        `yaml:"endpoint"`
		Insecure bool          `yaml:"insecure"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"otlp"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return defaultConfig(), nil // fallback to defaults if file missing
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret must not be empty")
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 4000, GracefulTimeout: 10 * time.Second, RequestTimeout: 60 * time.Second},
		MySQL:  MySQLConfig{DSN: "root:root@tcp(127.0.0.1:3306)/taskvault?parseTime=true&loc=UTC", MaxOpenConns: 50, MaxIdleConns: 10, ConnMaxLifeSec: 300},
		Auth:   AuthConfig{JWTSecret: "dev_only_change_me", TokenTTL: 7 * 24 * time.Hour, Issuer: "taskvault"},
		Logging: LoggingConfig{
			Level: "info", Format: "console", Output: "stdout",
			MaxSizeMB: 100, MaxAgeDays: 7, Compress: true,
		},
		Telemetry: TelemetryConfig{Enabled: false, ServiceName: "taskvault", Exporter: "stdout", SampleRatio: 1.0},
	}
}

// Package config loads the relay's yaml configuration.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Relay     RelayConfig     `yaml:"relay"`
	Admission AdmissionConfig `yaml:"admission"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type UpstreamConfig struct {
	// Driver names the registered live-source driver.
	Driver string `yaml:"driver"`
	// Credential, when set, overrides any caller-supplied credential on
	// every upstream connection.
	Credential string `yaml:"credential"`
}

type RelayConfig struct {
	// Retention bounds how long buffered events stay queryable.
	Retention time.Duration `yaml:"retention"`
	// StatisticInterval paces the statistic broadcast to push sessions.
	StatisticInterval time.Duration `yaml:"statistic_interval"`
}

type AdmissionConfig struct {
	Enabled        bool `yaml:"enabled"`
	MaxConnections int  `yaml:"max_connections"`
	MaxPerIP       int  `yaml:"max_per_ip"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Upstream: UpstreamConfig{
			Driver: "simulated",
		},
		Relay: RelayConfig{
			Retention:         30 * time.Minute,
			StatisticInterval: 5 * time.Second,
		},
		Admission: AdmissionConfig{
			Enabled:        false,
			MaxConnections: 1000,
			MaxPerIP:       10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, layering it over the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Relay.Retention <= 0 {
		cfg.Relay.Retention = 30 * time.Minute
	}
	if cfg.Relay.StatisticInterval <= 0 {
		cfg.Relay.StatisticInterval = 5 * time.Second
	}
	return cfg, nil
}

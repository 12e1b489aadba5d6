package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted in storage.driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ReadTimeout     string `yaml:"readTimeout"`
		WriteTimeout    string `yaml:"writeTimeout"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		Seed   *bool  `yaml:"seed"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default is the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "quiz-vault.db"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "quiz-vault:"
	}
}

// SeedOnStart reports whether storage should be initialized with the default
// dataset at startup. It defaults to true.
func (c Config) SeedOnStart() bool {
	return c.Storage.Seed == nil || *c.Storage.Seed
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

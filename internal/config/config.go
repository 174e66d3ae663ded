package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataPath   string  `yaml:"data_path"`
	DataDriver string  `yaml:"data_driver"` // "" (CSV file), "sqlite" or "postgres"
	DataDSN    string  `yaml:"data_dsn"`
	DataTable  string  `yaml:"data_table"`
	Port       string  `yaml:"port"`
	LogLevel   string  `yaml:"log_level"`
	RateLimit  float64 `yaml:"rate_limit"` // requests per second per client
}

// Load reads the .env file, the environment and, when CONFIG_FILE is set,
// a YAML file whose non-zero values win.
func Load(logger *log.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system env vars")
	}

	cfg := &Config{
		DataPath:   getEnv("DATA_PATH", "meat_consumption_2.csv"),
		DataDriver: getEnv("DATA_DRIVER", ""),
		DataDSN:    getEnv("DATA_DSN", ""),
		DataTable:  getEnv("DATA_TABLE", "meat_consumption"),
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		RateLimit:  getEnvFloat("RATE_LIMIT", 20),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.merge(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	override(&c.DataPath, file.DataPath)
	override(&c.DataDriver, file.DataDriver)
	override(&c.DataDSN, file.DataDSN)
	override(&c.DataTable, file.DataTable)
	override(&c.Port, file.Port)
	override(&c.LogLevel, file.LogLevel)
	if file.RateLimit != 0 {
		c.RateLimit = file.RateLimit
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DataDriver {
	case "":
		if c.DataPath == "" {
			return fmt.Errorf("config: DATA_PATH is required")
		}
	case "sqlite", "postgres":
		if c.DataDSN == "" {
			return fmt.Errorf("config: DATA_DSN is required for driver %s", c.DataDriver)
		}
	default:
		return fmt.Errorf("config: unknown DATA_DRIVER %q", c.DataDriver)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("config: RATE_LIMIT must be positive, got %v", c.RateLimit)
	}
	if _, ok := levels[c.LogLevel]; !ok {
		return fmt.Errorf("config: unknown LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

var levels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

// Level maps LogLevel to a gommon level.
func (c *Config) Level() log.Lvl {
	if lvl, ok := levels[c.LogLevel]; ok {
		return lvl
	}
	return log.INFO
}

// Addr is the listen address.
func (c *Config) Addr() string { return ":" + c.Port }

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

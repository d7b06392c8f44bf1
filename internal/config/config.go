package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvMemoryDir    = "MEMORY_DIR"
	EnvAPIPort      = "API_PORT"
	EnvApifyToken   = "APIFY_API_TOKEN"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// defaultDatabaseDSN is the embedded SQLite database used when no DSN is configured.
const defaultDatabaseDSN = "./outreach.db"

// LoadDatabaseDSN resolves the database DSN from env or the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultDatabaseDSN, nil
		}
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return defaultDatabaseDSN, nil
}

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file with env overrides.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// ServiceConfig holds the remaining service settings from the YAML config file.
type ServiceConfig struct {
	Port        int      `yaml:"port"`
	MemoryDir   string   `yaml:"memory-dir"`
	CORSOrigins []string `yaml:"cors-origins"`

	// PlanLimits overrides the built-in tier limit table. Unknown keys are
	// ignored by the quota policy; missing keys keep their defaults.
	PlanLimits map[string]int64 `yaml:"plan-limits"`

	RateLimit struct {
		PerSecond     int    `yaml:"per-second"`
		RedisAddr     string `yaml:"redis-addr"`
		RedisPassword string `yaml:"redis-password"`
		RedisPrefix   string `yaml:"redis-prefix"`
		RedisDB       int    `yaml:"redis-db"`
	} `yaml:"rate-limit"`

	Apify struct {
		Token string `yaml:"token"`
	} `yaml:"apify"`

	Model struct {
		Name     string `yaml:"name"`
		CacheDir string `yaml:"cache-dir"`
	} `yaml:"model"`
}

// Service configuration defaults.
const (
	DefaultPort      = 8000
	DefaultMemoryDir = "./memory"
	DefaultModelName = "QuantFactory/BitNet-3B-1.58-nf4"
	DefaultCacheDir  = "./models_cache"
)

// LoadServiceConfig loads service settings from the YAML config file with
// env overrides, falling back to defaults when the file is absent.
func LoadServiceConfig(configPath string) (ServiceConfig, error) {
	var cfg ServiceConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return ServiceConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	} else if !os.IsNotExist(errRead) {
		return ServiceConfig{}, fmt.Errorf("read config file: %w", errRead)
	}

	if dir := strings.TrimSpace(os.Getenv(EnvMemoryDir)); dir != "" {
		cfg.MemoryDir = dir
	}
	if token := strings.TrimSpace(os.Getenv(EnvApifyToken)); token != "" {
		cfg.Apify.Token = token
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = DefaultPort
	}
	if strings.TrimSpace(cfg.MemoryDir) == "" {
		cfg.MemoryDir = DefaultMemoryDir
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		cfg.Model.Name = DefaultModelName
	}
	if strings.TrimSpace(cfg.Model.CacheDir) == "" {
		cfg.Model.CacheDir = DefaultCacheDir
	}
	return cfg, nil
}

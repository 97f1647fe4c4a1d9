package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load 加载配置，支持多环境
//
// Order, later wins: Default(), the YAML file at path, the overlay file for
// CONFIG_ENV (config.yaml + "production" -> config.production.yaml), then
// environment variables. A .env next to the config file is loaded into the
// process environment first. Missing files are skipped.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	// 1. 加载 .env（如果存在）
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()

	// 2. 加载基础配置
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}

	// 3. 环境特定配置覆盖基础配置
	if env := GetConfigEnv(); env != "" && env != "base" {
		if err := decodeFile(overlayPath(path, env), cfg); err != nil {
			return nil, err
		}
	}

	// 4. 环境变量覆盖（优先级最高）
	OverrideServerFromEnv(&cfg.Server)
	OverrideStoreFromEnv(&cfg.Store)
	OverrideDBFromEnv(&cfg.DB)
	OverrideRedisFromEnv(&cfg.Redis)
	OverrideMQFromEnv(&cfg.MQ)
	OverrideLogFromEnv(&cfg.Log)
	OverrideOtelFromEnv(&cfg.Otel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.DB.URL == "" && (c.DB.Host == "" || c.DB.Name == "") {
			return errors.New("db.url or db.host and db.name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}

// decodeFile decodes YAML onto cfg; keys absent from the file keep their current value.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func overlayPath(path, env string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + env + ext
}

// GetEnv 获取环境变量，如果未设置则返回默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv 获取配置环境（从环境变量 CONFIG_ENV）
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "")
}

package model

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Config is the complete pricecmp configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Limits      LimitsConfig      `yaml:"limits" mapstructure:"limits"`
	Compare     CompareConfig     `yaml:"compare" mapstructure:"compare"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Address        string          `yaml:"address" mapstructure:"address"`
	Port           int             `yaml:"port" mapstructure:"port"`
	StaticDir      string          `yaml:"static_dir" mapstructure:"static_dir"`
	MaxConnections int             `yaml:"max_connections" mapstructure:"max_connections"`
	ReadTimeout    time.Duration   `yaml:"read_timeout" mapstructure:"read_timeout"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig limits requests per client address
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// DataConfig locates catalogs and the shopping list
type DataConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	ShoppingList string `yaml:"shopping_list" mapstructure:"shopping_list"`
	Backend      string `yaml:"backend" mapstructure:"backend"` // csv or sqlite
	SQLitePath   string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LimitsConfig bounds user input
type LimitsConfig struct {
	MaxArticles     int `yaml:"max_articles" mapstructure:"max_articles"`
	MaxStringLength int `yaml:"max_string_length" mapstructure:"max_string_length"`
	MaxText         int `yaml:"max_text" mapstructure:"max_text"`
	MaxFilename     int `yaml:"max_filename" mapstructure:"max_filename"`
}

// CompareConfig tunes unit price comparison
type CompareConfig struct {
	Epsilon float64 `yaml:"epsilon" mapstructure:"epsilon"`
}

// CacheConfig configures the loaded catalog cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig configures logging
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // json or text
	Output     string `yaml:"output" mapstructure:"output"` // stdout, stderr or a file path
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// ConcurrencyConfig sizes the sweep worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        "",
			Port:           8081,
			StaticDir:      "web",
			MaxConnections: 64,
			ReadTimeout:    10 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 20,
				Burst:             40,
			},
		},
		Data: DataConfig{
			Dir:          "data",
			ShoppingList: "data/einkaufsliste.txt",
			Backend:      "csv",
			SQLitePath:   "data/catalogs.db",
		},
		Limits: LimitsConfig{
			MaxArticles:     500,
			MaxStringLength: 256,
			MaxText:         127,
			MaxFilename:     259,
		},
		Compare: CompareConfig{
			Epsilon: 1e-6,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
	}
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return errors.New("server.max_connections must be >= 1")
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return errors.New("server.rate_limit.requests_per_second must be >= 0")
	}
	if c.Data.Dir == "" {
		return errors.New("data.dir is required")
	}
	switch c.Data.Backend {
	case "csv":
	case "sqlite":
		if c.Data.SQLitePath == "" {
			return errors.New("data.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("data.backend must be csv or sqlite, got %q", c.Data.Backend)
	}
	if c.Limits.MaxArticles < 1 {
		return errors.New("limits.max_articles must be >= 1")
	}
	if c.Limits.MaxText < 1 || c.Limits.MaxFilename < 1 || c.Limits.MaxStringLength < 1 {
		return errors.New("limits text lengths must be >= 1")
	}
	if c.Compare.Epsilon < 0 {
		return errors.New("compare.epsilon must be >= 0")
	}
	if c.Concurrency.Workers < 1 {
		return errors.New("concurrency.workers must be >= 1")
	}
	return nil
}

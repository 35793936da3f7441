package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct, loaded from an optional YAML file
// and overridden by environment variables and flags.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	Security   SecurityConfig   `yaml:"security"`
	Logging    LoggingConfig    `yaml:"logging"`
	Validation ValidationConfig `yaml:"validation"`
	Retention  RetentionConfig  `yaml:"retention"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address     string    `yaml:"address"`
	Port        int       `yaml:"port"`
	MaxBodySize SizeBytes `yaml:"max_body_size"`
}

// QdrantConfig points at the hosted vector store.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// SecurityConfig holds CORS, rate limiting and IP whitelist settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	IPWhitelist []string `yaml:"ip_whitelist"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ValidationConfig holds optional rule definitions applied to incoming
// conversation payloads on top of the baseline checks.
type ValidationConfig struct {
	Required []string `yaml:"required"`
	Types    []struct {
		Path string `yaml:"path"`
		Type string `yaml:"type"` // string|number|boolean|object|array
	} `yaml:"types"`
	MaxLen []struct {
		Path string `yaml:"path"`
		Max  int    `yaml:"max"`
	} `yaml:"max_len"`
	Enums []struct {
		Path   string   `yaml:"path"`
		Values []string `yaml:"values"`
	} `yaml:"enums"`
}

// RetentionConfig holds configuration for the automatic purge runner.
type RetentionConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Cron      string `yaml:"cron"`
	Period    string `yaml:"period"` // e.g. "720h"
	BatchSize int    `yaml:"batch_size"`
	DryRun    bool   `yaml:"dry_run"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	port := c.Server.Port
	if port == 0 {
		port = 8000
	}
	return fmt.Sprintf("%s:%d", c.Server.Address, port)
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "1MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Package config provides configuration management for the verification
// engine. It defines the configuration structure, default values and
// validation for batch checking parameters.
package config

import (
	"time"
)

// Matcher implementation names accepted by CheckConfig.Matcher.
const (
	MatcherRegex = "regex"
	MatcherDOM   = "dom"
)

// CheckConfig holds the verification engine configuration.
type CheckConfig struct {
	// Datasets to verify, in processing order. Empty means every dataset
	// present in the store, in name order.
	Datasets []string `mapstructure:"datasets" yaml:"datasets"`

	// Batch sizing and scheduling
	BatchSize    int           `mapstructure:"batch_size" yaml:"batch_size"`       // rows checked per tick
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"` // time between ticks

	// HTTP behavior
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // per-fetch timeout
	RequestDelay   float64       `mapstructure:"request_delay" yaml:"request_delay"`     // per-host delay in seconds
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header
	Headers        []string      `mapstructure:"headers" yaml:"headers"`                 // custom headers, "Name: Value"

	// Matching
	Matcher         string `mapstructure:"matcher" yaml:"matcher"`                     // "regex" or "dom"
	LooseMatchLimit int    `mapstructure:"loose_match_limit" yaml:"loose_match_limit"` // URLs reported by the loose fallback

	// Database configuration
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // path to SQLite database file

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *CheckConfig {
	return &CheckConfig{
		BatchSize:       250,
		TickInterval:    5 * time.Minute,
		RequestTimeout:  30 * time.Second,
		RequestDelay:    1.0,
		UserAgent:       "LinkMamori/1.0",
		Matcher:         MatcherRegex,
		LooseMatchLimit: 5,
		DatabasePath:    "./linkmamori.db",
		LogLevel:        "info",
	}
}

// Validate checks if the configuration is valid.
func (c *CheckConfig) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.TickInterval <= 0 {
		return ErrInvalidInterval
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// Enforce minimum delay of 100ms to stay polite to checked hosts
	if c.RequestDelay < 0.1 {
		c.RequestDelay = 0.1
	}

	if c.Matcher != MatcherRegex && c.Matcher != MatcherDOM {
		return ErrInvalidMatcher
	}

	if c.LooseMatchLimit <= 0 {
		c.LooseMatchLimit = 5
	}

	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}

	return nil
}

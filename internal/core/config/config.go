// Package config provides configuration management for the smart folder
// services.
package config

import (
	"fmt"
	"time"

	"github.com/fastgtd/smartfolder/internal/types"
)

// EngineConfig holds configuration for the rule engine and its storage.
type EngineConfig struct {
	DatabaseURL  string
	PreviewLimit int
	Timezone     string
	QueryTimeout time.Duration
	LogLevel     string
	LogFormat    string
}

// DefaultEngineConfig returns configuration with default values.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		DatabaseURL:  "sqlite://smartfolder.db",
		PreviewLimit: types.DefaultPreviewLimit,
		Timezone:     "UTC",
		QueryTimeout: 30 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Location resolves the configured timezone. Relative date operators
// (is_today, this_week, ...) anchor on calendar days in this location.
func (c *EngineConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

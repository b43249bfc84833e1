package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fastgtd/smartfolder/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*EngineConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultEngineConfig
	v.SetDefault("engine.database_url", "sqlite://smartfolder.db")
	v.SetDefault("engine.preview_limit", types.DefaultPreviewLimit)
	v.SetDefault("engine.timezone", "UTC")
	v.SetDefault("engine.query_timeout", "30s")
	v.SetDefault("engine.log_level", "info")
	v.SetDefault("engine.log_format", "text")

	// Bind environment variables with SF_ prefix
	v.SetEnvPrefix("SF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &EngineConfig{
		DatabaseURL:  v.GetString("engine.database_url"),
		PreviewLimit: v.GetInt("engine.preview_limit"),
		Timezone:     v.GetString("engine.timezone"),
		QueryTimeout: v.GetDuration("engine.query_timeout"),
		LogLevel:     v.GetString("engine.log_level"),
		LogFormat:    v.GetString("engine.log_format"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks database URL presence, preview limit range, and
// timezone resolvability.
func validateConfig(cfg *EngineConfig) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url must not be empty")
	}
	if cfg.PreviewLimit <= 0 || cfg.PreviewLimit > types.MaxPreviewLimit {
		return fmt.Errorf("preview_limit must be between 1 and %d, got %d", types.MaxPreviewLimit, cfg.PreviewLimit)
	}
	if cfg.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %v", cfg.QueryTimeout)
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat)
	}
	return nil
}

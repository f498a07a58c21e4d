package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the exporter.
type Config struct {
	LogLevel     string
	PostgresDSN  string
	OutputDir    string
	LogDir       string
	MaxBackups   int
	SourceName   string
	Schedule     string
	MetricsAddr  string
	MaxRetries   int
	OTelEndpoint string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		PostgresDSN:  v.GetString("postgres_dsn"),
		OutputDir:    v.GetString("output_dir"),
		LogDir:       v.GetString("log_dir"),
		MaxBackups:   v.GetInt("max_backups"),
		SourceName:   v.GetString("source_name"),
		Schedule:     v.GetString("schedule"),
		MetricsAddr:  v.GetString("metrics_addr"),
		MaxRetries:   v.GetInt("max_retries"),
		OTelEndpoint: v.GetString("otel_endpoint"),
	}
}

// Validate checks the fields every run needs.
func (c Config) Validate() error {
	if c.PostgresDSN == "" {
		return errors.New("postgres_dsn is required")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	return nil
}

// Package config loads gclql settings from YAML.
package config

import (
	"log/slog"
	"strings"

	"github.com/roach88/gclql/internal/querysql"
	"github.com/roach88/gclql/internal/schema"
)

// Config is the application configuration.
type Config struct {
	// MainTable is the table queries filter. Required for discovery.
	MainTable string `yaml:"main_table"`

	MainAlias       string `yaml:"main_alias"`
	MetadataField   string `yaml:"metadata_field"`
	NameField       string `yaml:"name_field"`
	UUIDField       string `yaml:"uuid_field"`
	LastEditedField string `yaml:"last_edited_field"`

	DefaultSortBy       string  `yaml:"default_sort_by"`
	DefaultSortOrder    string  `yaml:"default_sort_order"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	Schema   SchemaConfig   `yaml:"schema"`
	Logging  LoggingConfig  `yaml:"logging"`

	// BaseDir is the directory of the loaded file. Relative paths are
	// resolved against it.
	BaseDir string `yaml:"-"`
}

// DatabaseConfig locates the Postgres database to discover.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn"`
	TableSchema string `yaml:"table_schema"`
}

// StoreConfig locates the SQLite snapshot store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SchemaConfig locates a schema snapshot file.
type SchemaConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns a Config with default values.
func Defaults() *Config {
	opts := schema.DefaultOptions()
	return &Config{
		MainAlias:           opts.MainAlias,
		MetadataField:       opts.MetadataField,
		NameField:           opts.NameField,
		UUIDField:           opts.UUIDField,
		LastEditedField:     opts.LastEditedField,
		DefaultSortBy:       "last_edited_at",
		DefaultSortOrder:    "desc",
		SimilarityThreshold: querysql.DefaultSimilarityThreshold,
		Database: DatabaseConfig{
			TableSchema: "public",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SchemaOptions returns the naming options for schema.Build.
func (c *Config) SchemaOptions() schema.Options {
	return schema.Options{
		MainAlias:       c.MainAlias,
		MetadataField:   c.MetadataField,
		NameField:       c.NameField,
		UUIDField:       c.UUIDField,
		LastEditedField: c.LastEditedField,
	}
}

// PlannerOptions returns the options for querysql.NewPlanner.
func (c *Config) PlannerOptions() []querysql.Option {
	return []querysql.Option{
		querysql.WithDefaultSort(c.DefaultSortBy, c.DefaultSortOrder),
		querysql.WithSimilarityThreshold(c.SimilarityThreshold),
	}
}

// SlogLevel maps Logging.Level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

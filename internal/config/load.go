package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked for in the working directory when no path is
// given.
const DefaultFile = "gclql.yaml"

// Load reads configuration from a file with ENV interpolation.
//
// If path is empty, $GCLQL_CONFIG and then ./gclql.yaml are tried. When
// neither exists the defaults are returned. Unknown keys are rejected.
func Load(path string, getenv func(string) string) (*Config, error) {
	path, err := resolvePath(path, getenv)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Defaults(), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.BaseDir = filepath.Dir(absPath)
	cfg.Schema.Path = cfg.resolve(cfg.Schema.Path)
	cfg.Store.Path = cfg.resolve(cfg.Store.Path)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("GCLQL_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("GCLQL_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	}
	return "", nil
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate reports every invalid setting at once.
func Validate(cfg *Config) error {
	var errs []string

	for name, v := range map[string]string{
		"main_alias":        cfg.MainAlias,
		"metadata_field":    cfg.MetadataField,
		"name_field":        cfg.NameField,
		"uuid_field":        cfg.UUIDField,
		"last_edited_field": cfg.LastEditedField,
	} {
		if v == "" {
			errs = append(errs, name+" must not be empty")
		}
	}

	switch strings.ToLower(cfg.DefaultSortOrder) {
	case "asc", "desc":
	default:
		errs = append(errs, fmt.Sprintf("invalid default_sort_order: %q (must be asc or desc)", cfg.DefaultSortOrder))
	}

	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Sprintf("invalid similarity_threshold: %g (must be in (0, 1])", cfg.SimilarityThreshold))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	if cfg.Schema.Watch && cfg.Schema.Path == "" {
		errs = append(errs, "schema.watch requires schema.path")
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

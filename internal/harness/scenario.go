package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a set of query cases run against one schema snapshot.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description says what the scenario covers.
	Description string `yaml:"description"`

	// Schema is the snapshot file (.yaml, .json or .cue). LoadScenario
	// resolves it relative to the scenario file.
	Schema string `yaml:"schema"`

	// SimilarityThreshold overrides the "#" operator threshold when set.
	SimilarityThreshold float64 `yaml:"similarity_threshold,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case is one query and what its plan must look like. Unset expectations
// are not checked.
type Case struct {
	Name      string `yaml:"name,omitempty"`
	Query     string `yaml:"query"`
	SortBy    string `yaml:"sort_by,omitempty"`
	SortOrder string `yaml:"sort_order,omitempty"`

	// Where must equal the bare predicate exactly.
	Where string `yaml:"where,omitempty"`

	// WhereContains lists substrings the predicate must contain.
	WhereContains []string `yaml:"where_contains,omitempty"`

	// OrderBy is a substring the search statement's ORDER BY must contain.
	OrderBy string `yaml:"order_by,omitempty"`

	// Params are compared after JSON normalization, so 5 matches int64(5)
	// and "2024-01-01T00:00:00Z" matches the parsed date.
	Params []any `yaml:"params,omitempty"`

	// ErrorType is the expected error category: invalid_field,
	// invalid_operation, invalid_query or invalid_sort_order.
	ErrorType string `yaml:"error_type,omitempty"`

	// Recovered, when set, must match Plan.Recovered.
	Recovered *bool `yaml:"recovered,omitempty"`
}

// Label names the case for reports: its name, or its 1-based position.
func (c Case) Label(index int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("case %d", index+1)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "where_contain:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

var errorTypes = map[string]bool{
	"invalid_field":      true,
	"invalid_operation":  true,
	"invalid_query":      true,
	"invalid_sort_order": true,
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", s.Schema)
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be between 0 and 1")
	}

	seen := make(map[string]bool)
	for i, c := range s.Cases {
		if c.Name != "" {
			if seen[c.Name] {
				return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
			}
			seen[c.Name] = true
		}
		if c.ErrorType != "" {
			if !errorTypes[c.ErrorType] {
				return fmt.Errorf("cases[%d]: unknown error_type %q", i, c.ErrorType)
			}
			if c.Where != "" || len(c.WhereContains) > 0 || c.Params != nil || c.Recovered != nil {
				return fmt.Errorf("cases[%d]: error_type cannot be combined with plan expectations", i)
			}
		}
	}

	return nil
}

package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a Discovery snapshot from disk. The format follows the
// extension: .yaml/.yml, .json, or .cue. YAML and JSON reject unknown
// fields.
func LoadFile(path string) (Discovery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Discovery{}, fmt.Errorf("read schema file: %w", err)
	}

	var d Discovery
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
			return Discovery{}, fmt.Errorf("parse schema file %s: %w", path, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return Discovery{}, fmt.Errorf("parse schema file %s: %w", path, err)
		}
	case ".cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return Discovery{}, fmt.Errorf("compile schema file %s: %w", path, err)
		}
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return Discovery{}, fmt.Errorf("validate schema file %s: %w", path, err)
		}
		if err := v.Decode(&d); err != nil {
			return Discovery{}, fmt.Errorf("decode schema file %s: %w", path, err)
		}
	default:
		return Discovery{}, fmt.Errorf("unsupported schema file extension %q", ext)
	}
	return d, nil
}

// SaveFile writes a Discovery snapshot as YAML or JSON, chosen by
// extension.
func SaveFile(path string, d Discovery) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(d)
	case ".json":
		data, err = json.MarshalIndent(d, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported schema file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("encode schema file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}
	return nil
}

// FileSource discovers the schema from a snapshot file.
type FileSource struct {
	Path string
}

// Discover loads the file.
func (s FileSource) Discover(ctx context.Context) (Discovery, error) {
	if err := ctx.Err(); err != nil {
		return Discovery{}, err
	}
	return LoadFile(s.Path)
}

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/gclql/internal/schema"
)

// timeLayout stores created_at as fixed-width UTC text so that it sorts
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// marshalDiscovery converts a Discovery to JSON TEXT for storage.
// HTML escaping is disabled so stored text matches what was discovered.
func marshalDiscovery(d schema.Discovery) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return "", fmt.Errorf("marshal discovery: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalDiscovery parses JSON TEXT to a Discovery.
func unmarshalDiscovery(data string) (schema.Discovery, error) {
	var d schema.Discovery
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return schema.Discovery{}, fmt.Errorf("unmarshal discovery: %w", err)
	}
	return d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return t, nil
}

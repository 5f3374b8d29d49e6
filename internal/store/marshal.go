package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sdbip/agiler-write-model/internal/es"
)

// marshalDetails converts event details to JSON TEXT for storage.
// HTML escaping is disabled so stored payloads read back byte-for-byte.
func marshalDetails(d es.Details) (string, error) {
	if d == nil {
		d = es.Details{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalDetails parses stored JSON TEXT. Empty input yields an empty map.
func unmarshalDetails(data string) (es.Details, error) {
	if data == "" || data == "{}" {
		return es.Details{}, nil
	}
	var d es.Details
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	if d == nil {
		d = es.Details{}
	}
	return d, nil
}

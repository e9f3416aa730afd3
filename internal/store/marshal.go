package store

import (
	"encoding/json"
	"fmt"
)

// marshalStringMap serializes captured key/value context as a JSON object.
// Nil and empty maps both store as "{}" so scans never see SQL NULL.
func marshalStringMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal map: %w", err)
	}
	return string(b), nil
}

// unmarshalStringMap is the inverse; a corrupt blob returns an error so the
// caller can decide whether to skip the row or fail the query.
func unmarshalStringMap(s string) (map[string]string, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshal map: %w", err)
	}
	return m, nil
}

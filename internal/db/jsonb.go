/*-------------------------------------------------------------------------
 *
 * jsonb.go
 *    JSONB map type for NeuronChat
 *
 * Provides a map type that scans from and serializes to Postgres jsonb
 * columns.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/db/jsonb.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

/* JSONBMap represents a Postgres jsonb object column */
type JSONBMap map[string]interface{}

/* Value implements driver.Valuer */
func (m JSONBMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb map: %w", err)
	}
	return data, nil
}

/* Scan implements sql.Scanner */
func (m *JSONBMap) Scan(src interface{}) error {
	if src == nil {
		*m = make(JSONBMap)
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}

	result := make(JSONBMap)
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("failed to unmarshal jsonb map: %w", err)
	}
	*m = result
	return nil
}

/* GetString returns a string-valued key, or the fallback when absent */
func (m JSONBMap) GetString(key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

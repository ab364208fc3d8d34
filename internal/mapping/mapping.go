// Package mapping turns raw sheet rows into typed canonical records.
package mapping

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// ColumnMapping routes one source column to a canonical field. The UI
// and the suggestion port historically emitted both snake_case and
// camelCase keys, so unmarshalling accepts either.
type ColumnMapping struct {
	SourceColumn   string  `json:"source_column"`
	TargetField    string  `json:"target_field"`
	Confidence     float64 `json:"confidence"`
	Transformation string  `json:"transformation,omitempty"`
	CustomKey      string  `json:"custom_key,omitempty"`
}

type columnMappingWire struct {
	SourceColumn   string          `json:"source_column"`
	SourceColumnCC string          `json:"sourceColumn"`
	TargetField    string          `json:"target_field"`
	TargetFieldCC  string          `json:"targetField"`
	Confidence     json.RawMessage `json:"confidence"`
	Transformation string          `json:"transformation"`
	CustomKey      string          `json:"custom_key"`
	CustomKeyCC    string          `json:"customKey"`
}

func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	var w columnMappingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.SourceColumn = firstNonEmpty(w.SourceColumn, w.SourceColumnCC)
	m.TargetField = firstNonEmpty(w.TargetField, w.TargetFieldCC)
	m.Transformation = w.Transformation
	m.CustomKey = firstNonEmpty(w.CustomKey, w.CustomKeyCC)
	m.Confidence = NormalizeConfidence(w.Confidence)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// DecodeMappings parses the jsonb mappings column of a connection.
func DecodeMappings(raw datatypes.JSON) ([]ColumnMapping, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var mappings []ColumnMapping
	if err := json.Unmarshal(raw, &mappings); err != nil {
		return nil, fmt.Errorf("failed to decode column mappings: %w", err)
	}
	return mappings, nil
}

// EncodeMappings serializes mappings for storage.
func EncodeMappings(mappings []ColumnMapping) (datatypes.JSON, error) {
	b, err := json.Marshal(mappings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode column mappings: %w", err)
	}
	return datatypes.JSON(b), nil
}

// NormalizeConfidence reconciles the two confidence conventions into one
// 0-100 numeric scale: coarse labels map to fixed anchors (high 90,
// medium 60, low 30), numbers pass through, anything missing or
// unparseable defaults to 50.
func NormalizeConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 50
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 50
	}
	switch s {
	case "high", "HIGH", "High":
		return 90
	case "medium", "MEDIUM", "Medium":
		return 60
	case "low", "LOW", "Low":
		return 30
	}
	var parsed float64
	if _, err := fmt.Sscanf(s, "%f", &parsed); err == nil {
		return parsed
	}
	return 50
}

package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestColumnMapping_UnmarshalBothCases(t *testing.T) {
	snake := []byte(`{"source_column":"Email","target_field":"email","confidence":85}`)
	camel := []byte(`{"sourceColumn":"Email","targetField":"email","confidence":"high"}`)

	var m ColumnMapping
	require.NoError(t, json.Unmarshal(snake, &m))
	assert.Equal(t, "Email", m.SourceColumn)
	assert.Equal(t, "email", m.TargetField)
	assert.Equal(t, 85.0, m.Confidence)

	var c ColumnMapping
	require.NoError(t, json.Unmarshal(camel, &c))
	assert.Equal(t, "Email", c.SourceColumn)
	assert.Equal(t, "email", c.TargetField)
	assert.Equal(t, 90.0, c.Confidence)
}

func TestNormalizeConfidence(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`"high"`, 90},
		{`"medium"`, 60},
		{`"low"`, 30},
		{`92`, 92},
		{`0.5`, 0.5},
		{`"77"`, 77},
		{`null`, 50},
		{`"unknown"`, 50},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeConfidence(json.RawMessage(tc.raw)), "raw %s", tc.raw)
	}
	assert.Equal(t, 50.0, NormalizeConfidence(nil))
}

func TestDecodeMappings(t *testing.T) {
	raw := datatypes.JSON(`[{"source_column":"Name","target_field":"name"},{"sourceColumn":"Email","targetField":"email"}]`)

	mappings, err := DecodeMappings(raw)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "Name", mappings[0].SourceColumn)
	assert.Equal(t, "email", mappings[1].TargetField)

	empty, err := DecodeMappings(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = DecodeMappings(datatypes.JSON(`{broken`))
	assert.Error(t, err)
}

func TestEncodeDecodeMappings(t *testing.T) {
	in := []ColumnMapping{
		{SourceColumn: "Name", TargetField: "name", Confidence: 95, Transformation: TransformTrim},
		{SourceColumn: "Extra", CustomKey: "extra_info", Confidence: 40},
	}

	raw, err := EncodeMappings(in)
	require.NoError(t, err)

	out, err := DecodeMappings(raw)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0].SourceColumn, out[0].SourceColumn)
	assert.Equal(t, in[1].CustomKey, out[1].CustomKey)
}

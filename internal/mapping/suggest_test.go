package mapping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suggesterServer(t *testing.T, content string, status int) *OpenAISuggester {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAISuggester(srv.URL, "test-key", "test-model", 5*time.Second)
}

func TestOpenAISuggester_Suggest(t *testing.T) {
	content := `{"entity_type":"appointments","confidence":"high","mappings":[` +
		`{"source_column":"Client","target_field":"name","confidence":95},` +
		`{"sourceColumn":"Cash","targetField":"cash_collected","confidence":"medium"}],` +
		`"warnings":["ambiguous column: Cash"]}`

	s := suggesterServer(t, content, http.StatusOK)
	got, err := s.Suggest(context.Background(), "", []string{"Client", "Cash"}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.SheetTypeAppointments, got.EntityType)
	assert.Equal(t, 90.0, got.Confidence)
	require.Len(t, got.Mappings, 2)
	assert.Equal(t, "name", got.Mappings[0].TargetField)
	assert.Equal(t, 95.0, got.Mappings[0].Confidence)
	assert.Equal(t, "cash_collected", got.Mappings[1].TargetField)
	assert.Equal(t, 60.0, got.Mappings[1].Confidence)
	assert.Contains(t, got.Warnings, "ambiguous column: Cash")
}

func TestOpenAISuggester_FencedJSON(t *testing.T) {
	content := "```json\n{\"entity_type\":\"leads\",\"confidence\":80,\"mappings\":[]}\n```"

	s := suggesterServer(t, content, http.StatusOK)
	got, err := s.Suggest(context.Background(), "", []string{"Name"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SheetTypeLeads, got.EntityType)
	assert.Equal(t, 80.0, got.Confidence)
}

func TestOpenAISuggester_UnknownEntityTypeFallsBackToHint(t *testing.T) {
	content := `{"entity_type":"banana","confidence":70,"mappings":[]}`

	s := suggesterServer(t, content, http.StatusOK)
	got, err := s.Suggest(context.Background(), models.SheetTypeCalls, []string{"Name"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SheetTypeCalls, got.EntityType)
	assert.NotEmpty(t, got.Warnings)
}

func TestOpenAISuggester_Failures(t *testing.T) {
	s := suggesterServer(t, "", http.StatusInternalServerError)
	_, err := s.Suggest(context.Background(), "", []string{"Name"}, nil)
	require.Error(t, err)
	assert.Equal(t, sheets.CodeSuggestionUnavailable, sheets.CodeOf(err))

	garbled := suggesterServer(t, "this is not json at all", http.StatusOK)
	_, err = garbled.Suggest(context.Background(), "", []string{"Name"}, nil)
	require.Error(t, err)
	assert.Equal(t, sheets.CodeSuggestionUnavailable, sheets.CodeOf(err))

	unconfigured := NewOpenAISuggester("http://unused", "", "m", time.Second)
	_, err = unconfigured.Suggest(context.Background(), "", []string{"Name"}, nil)
	require.Error(t, err)
	assert.Equal(t, sheets.CodeSuggestionUnavailable, sheets.CodeOf(err))
}

func TestRuleSuggester(t *testing.T) {
	got, err := RuleSuggester{}.Suggest(context.Background(), "", []string{
		"Email", "Phone Number", "Revenue", "Favorite Snack",
	}, nil)
	require.NoError(t, err)
	require.Len(t, got.Mappings, 4)

	assert.Equal(t, "email", got.Mappings[0].TargetField)
	assert.Equal(t, TransformLowercaseTrim, got.Mappings[0].Transformation)
	assert.Equal(t, 80.0, got.Mappings[0].Confidence)

	assert.Equal(t, "phone", got.Mappings[1].TargetField)
	assert.Equal(t, TransformCleanPhone, got.Mappings[1].Transformation)

	assert.Equal(t, "revenue", got.Mappings[2].TargetField)
	assert.Equal(t, TransformParseCurrency, got.Mappings[2].Transformation)

	// Unrecognized columns become custom fields with a low confidence.
	assert.Empty(t, got.Mappings[3].TargetField)
	assert.Equal(t, "favorite_snack", got.Mappings[3].CustomKey)
	assert.Equal(t, 30.0, got.Mappings[3].Confidence)
	assert.NotEmpty(t, got.Warnings)
}

func TestRuleSuggester_HintOverridesDetection(t *testing.T) {
	got, err := RuleSuggester{}.Suggest(context.Background(), models.SheetTypeDeals, []string{"Name", "Email"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SheetTypeDeals, got.EntityType)
}

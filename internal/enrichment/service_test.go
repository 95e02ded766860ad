package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shadow-ai-sentinel/pkg/errors"
)

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict(`{
		"value_category": "productivity",
		"estimated_minutes_saved": 30,
		"business_outcome": "Drafted a client email faster.",
		"policy_alignment": "aligned",
		"value_summary": "Routine productivity gain."
	}`)
	require.NoError(t, err)
	assert.Equal(t, "productivity", v.ValueCategory)
	assert.Equal(t, 30, v.EstimatedMinutesSaved)
	assert.Equal(t, "aligned", v.PolicyAlignment)
}

func TestParseVerdictRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `the user saved about 30 minutes`},
		{"unknown category", `{"value_category":"moonshot","estimated_minutes_saved":5,"business_outcome":"x","policy_alignment":"aligned","value_summary":"y"}`},
		{"negative minutes", `{"value_category":"productivity","estimated_minutes_saved":-5,"business_outcome":"x","policy_alignment":"aligned","value_summary":"y"}`},
		{"implausible minutes", `{"value_category":"productivity","estimated_minutes_saved":1000,"business_outcome":"x","policy_alignment":"aligned","value_summary":"y"}`},
		{"unknown alignment", `{"value_category":"productivity","estimated_minutes_saved":5,"business_outcome":"x","policy_alignment":"maybe","value_summary":"y"}`},
		{"empty narrative", `{"value_category":"productivity","estimated_minutes_saved":5,"business_outcome":" ","policy_alignment":"aligned","value_summary":"y"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseVerdict(tt.content)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeVerdictInvalid, apperrors.AsAppError(err).Code)
		})
	}
}

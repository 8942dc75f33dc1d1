package survey

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limeboard/limeboard/pkg/limesurvey"
)

// exportPayload builds the wire form of an export result: a JSON string
// holding the base64 of the response document.
func exportPayload(t *testing.T, document any) json.RawMessage {
	t.Helper()

	inner, err := json.Marshal(document)
	require.NoError(t, err)

	outer, err := json.Marshal(base64.StdEncoding.EncodeToString(inner))
	require.NoError(t, err)

	return outer
}

func TestAnalyzeExport(t *testing.T) {
	t.Run("counts answered against total and never sets completed", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{{
			"id":         5,
			"submitdate": "2024-01-01",
			"q1":         "yes",
			"q2":         "",
		}})

		analysis := AnalyzeExport(payload)

		assert.False(t, analysis.Completed)
		assert.Equal(t, 50, analysis.Completion)
		assert.Equal(t, "5", analysis.ResponseID)
		assert.Equal(t, map[string]string{"q1": "yes"}, analysis.Responses)
		assert.Empty(t, analysis.Diagnostic)
	})

	t.Run("null fields do not count toward the total", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{{
			"q1": "yes",
			"q2": nil,
			"q3": nil,
		}})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, 100, analysis.Completion)
	})

	t.Run("zero values count as answered", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{{
			"q1": "0",
			"q2": 0,
		}})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, 100, analysis.Completion)
		assert.Equal(t, map[string]string{"q1": "0", "q2": "0"}, analysis.Responses)
	})

	t.Run("skips localized technical fields", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{{
			"Fecha de envío":  "2024-01-01",
			"Última página":   "3",
			"Código de acceso": "abc123",
			"q1":              "si",
		}})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, 100, analysis.Completion)
		assert.Equal(t, map[string]string{"q1": "si"}, analysis.Responses)
	})

	t.Run("skips coded sub-question duplicates", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{{
			"Rate the course":                       "4",
			"Rate the course (328717X4047X79021SQ002)": "4",
			"q2": "",
		}})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, 50, analysis.Completion)
		assert.Equal(t, map[string]string{"Rate the course": "4"}, analysis.Responses)
	})

	t.Run("unwraps the responses envelope", func(t *testing.T) {
		payload := exportPayload(t, map[string]any{
			"responses": []map[string]any{{"response_id": "77", "q1": "yes"}},
		})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, "77", analysis.ResponseID)
		assert.Equal(t, 100, analysis.Completion)
	})

	t.Run("unwraps a mapping-shaped responses envelope", func(t *testing.T) {
		payload := exportPayload(t, map[string]any{
			"responses": map[string]any{
				"5": map[string]any{"id": 5, "submitdate": "2024-01-01", "q1": "yes", "q2": ""},
			},
		})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, "5", analysis.ResponseID)
		assert.Equal(t, 50, analysis.Completion)
		assert.Equal(t, map[string]string{"q1": "yes"}, analysis.Responses)
	})

	t.Run("takes the first entry of a bare keyed mapping", func(t *testing.T) {
		payload := exportPayload(t, map[string]any{
			"7": map[string]any{"id": "7", "q1": "yes", "q2": ""},
		})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, "7", analysis.ResponseID)
		assert.Equal(t, 50, analysis.Completion)
	})

	t.Run("mapping of scalars yields zero analysis", func(t *testing.T) {
		payload := exportPayload(t, map[string]any{"id": 5, "q1": "yes"})

		analysis := AnalyzeExport(payload)

		assert.Zero(t, analysis.Completion)
		assert.NotEmpty(t, analysis.Diagnostic)
	})

	t.Run("unwraps records keyed by response id", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{{
			"42": map[string]any{"id": "42", "q1": "yes"},
		}})

		analysis := AnalyzeExport(payload)

		assert.Equal(t, "42", analysis.ResponseID)
		assert.Equal(t, 100, analysis.Completion)
	})

	t.Run("non-string payload yields zero analysis", func(t *testing.T) {
		analysis := AnalyzeExport(json.RawMessage(`{"status":"No Data"}`))

		assert.False(t, analysis.Completed)
		assert.Zero(t, analysis.Completion)
		assert.Nil(t, analysis.Responses)
		assert.NotEmpty(t, analysis.Diagnostic)
	})

	t.Run("invalid base64 yields zero analysis", func(t *testing.T) {
		analysis := AnalyzeExport(json.RawMessage(`"not base64!!!"`))

		assert.Zero(t, analysis.Completion)
		assert.NotEmpty(t, analysis.Diagnostic)
	})

	t.Run("undecodable document yields zero analysis", func(t *testing.T) {
		outer, err := json.Marshal(base64.StdEncoding.EncodeToString([]byte("<html>")))
		require.NoError(t, err)

		analysis := AnalyzeExport(outer)

		assert.Zero(t, analysis.Completion)
		assert.NotEmpty(t, analysis.Diagnostic)
	})

	t.Run("empty record list yields zero analysis", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{})

		analysis := AnalyzeExport(payload)

		assert.Zero(t, analysis.Completion)
		assert.NotEmpty(t, analysis.Diagnostic)
	})

	t.Run("only technical fields yields zero completion", func(t *testing.T) {
		payload := exportPayload(t, []map[string]any{{
			"id": "9", "token": "abc", "submitdate": "2024-01-01",
		}})

		analysis := AnalyzeExport(payload)

		assert.Zero(t, analysis.Completion)
		assert.Equal(t, "9", analysis.ResponseID)
	})
}

func TestApplyUsesLeft(t *testing.T) {
	tests := []struct {
		name      string
		usesLeft  string
		set       bool
		completed bool
	}{
		{name: "unset defaults to one", completed: false},
		{name: "one means never submitted", usesLeft: "1", set: true, completed: false},
		{name: "zero means submitted", usesLeft: "0", set: true, completed: true},
		{name: "negative means resubmitted", usesLeft: "-2", set: true, completed: true},
		{name: "unparsable defaults to one", usesLeft: "many", set: true, completed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := limesurvey.Participant{Extra: map[string]string{}}
			if tt.set {
				p.Extra["usesleft"] = tt.usesLeft
			}

			analysis := Analysis{Completion: 50}
			ApplyUsesLeft(&analysis, p)

			assert.Equal(t, tt.completed, analysis.Completed)
			assert.Equal(t, 50, analysis.Completion, "percentage must not change")
		})
	}
}

package survey

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limeboard/limeboard/internal/models"
	"github.com/limeboard/limeboard/pkg/limesurvey"
)

func TestAssemble(t *testing.T) {
	user := models.User{ID: "42", Email: "ana@example.org"}

	opts := Options{
		APIURL:          "https://ls.example.org/index.php/admin/remotecontrol",
		Username:        "admin",
		Password:        "secret",
		ExtraAttributes: []string{"attribute_8", "nombre_profe"},
	}

	t.Run("assembles one entry per survey and participant", func(t *testing.T) {
		participant := participantRecord("7", "tok-a", "ana@example.org")

		gw := &fakeGateway{
			sessionKey: "sess",
			surveys: []limesurvey.Survey{
				{SID: "100", Title: "Course survey", Active: "Y"},
				{SID: "200", Title: "Closed survey", Active: "N"},
			},
			participants: map[string][]limesurvey.Participant{
				"100": {participant},
			},
			props: map[string]map[string]any{
				"7": {"attribute_8": "Algebra", "nombre_profe": "Dr. Ruiz", "usesleft": "0"},
			},
			exports: map[string]json.RawMessage{
				"100/tok-a": exportPayload(t, []map[string]any{{
					"id": 5, "submitdate": "2024-01-01", "q1": "yes", "q2": "",
				}}),
			},
		}

		list, err := NewAssembler(gw, opts).Assemble(context.Background(), user)

		require.NoError(t, err)
		assert.True(t, list.Success)
		assert.False(t, list.CachedAt.IsZero())
		require.Len(t, list.Surveys, 1)

		view := list.Surveys[0]
		assert.Equal(t, "Course survey", view.Title)
		assert.Equal(t, "https://ls.example.org/index.php/survey?sid=100&token=tok-a", view.URL)
		assert.True(t, view.Completed, "usesleft 0 marks the survey submitted")
		assert.Equal(t, 50, view.CompletionPercentage)
		assert.Equal(t, []string{"Algebra", "Dr. Ruiz"}, view.Attributes)
		assert.Equal(t, map[string]string{"q1": "yes"}, view.Responses)
		assert.Equal(t, "5", view.ResponseID)

		assert.Equal(t, []string{"sess"}, gw.released, "session released after the run")
	})

	t.Run("no eligible surveys still succeeds with an empty list", func(t *testing.T) {
		gw := &fakeGateway{sessionKey: "sess"}

		list, err := NewAssembler(gw, opts).Assemble(context.Background(), user)

		require.NoError(t, err)
		assert.True(t, list.Success)
		assert.NotNil(t, list.Surveys)
		assert.Empty(t, list.Surveys)
	})

	t.Run("export failure degrades to an unanswered entry", func(t *testing.T) {
		gw := &fakeGateway{
			sessionKey: "sess",
			surveys: []limesurvey.Survey{
				{SID: "100", Title: "Course survey", Active: "Y"},
			},
			participants: map[string][]limesurvey.Participant{
				"100": {participantRecord("7", "tok-a", "ana@example.org")},
			},
			exportErr: errors.New("export unavailable"),
		}

		list, err := NewAssembler(gw, opts).Assemble(context.Background(), user)

		require.NoError(t, err)
		require.Len(t, list.Surveys, 1)
		assert.False(t, list.Surveys[0].Completed)
		assert.Zero(t, list.Surveys[0].CompletionPercentage)
	})

	t.Run("duplicate attribute values are collapsed", func(t *testing.T) {
		participant := participantRecord("7", "tok-a", "ana@example.org")
		participant.Extra = map[string]string{
			"attribute_8":  "Algebra",
			"nombre_profe": "Algebra",
		}

		gw := &fakeGateway{
			sessionKey: "sess",
			surveys: []limesurvey.Survey{
				{SID: "100", Title: "Course survey", Active: "Y"},
			},
			participants: map[string][]limesurvey.Participant{
				"100": {participant},
			},
		}

		list, err := NewAssembler(gw, opts).Assemble(context.Background(), user)

		require.NoError(t, err)
		require.Len(t, list.Surveys, 1)
		assert.Equal(t, []string{"Algebra"}, list.Surveys[0].Attributes)
	})

	t.Run("session refusal fails the run", func(t *testing.T) {
		gw := &fakeGateway{sessionErr: limesurvey.ErrSessionRefused}

		_, err := NewAssembler(gw, opts).Assemble(context.Background(), user)

		require.Error(t, err)
		assert.ErrorIs(t, err, limesurvey.ErrSessionRefused)
		assert.Empty(t, gw.released)
	})

	t.Run("listing failure fails the run but releases the session", func(t *testing.T) {
		gw := &fakeGateway{sessionKey: "sess", surveysErr: errors.New("rpc down")}

		_, err := NewAssembler(gw, opts).Assemble(context.Background(), user)

		require.Error(t, err)
		assert.Equal(t, []string{"sess"}, gw.released)
	})
}

func TestSurveyURL(t *testing.T) {
	tests := []struct {
		name   string
		apiURL string
		want   string
	}{
		{
			name:   "remotecontrol path is truncated at index.php",
			apiURL: "https://ls.example.org/index.php/admin/remotecontrol",
			want:   "https://ls.example.org/index.php/survey?sid=100&token=tok",
		},
		{
			name:   "plain index.php endpoint",
			apiURL: "http://ls.example.org/index.php",
			want:   "http://ls.example.org/index.php/survey?sid=100&token=tok",
		},
		{
			name:   "no index.php segment keeps the path",
			apiURL: "https://ls.example.org/limesurvey",
			want:   "https://ls.example.org/limesurvey/survey?sid=100&token=tok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SurveyURL(tt.apiURL, "100", "tok"))
		})
	}
}

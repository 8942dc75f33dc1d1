package survey

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/limeboard/limeboard/pkg/limesurvey"
)

// participantPageSize bounds a single list_participants / export call.
const participantPageSize = 5000

// Gateway is the subset of the RemoteControl client the reconciliation
// core issues calls through.
type Gateway interface {
	GetSessionKey(ctx context.Context, username, password string) (string, error)
	ReleaseSessionKey(ctx context.Context, sessionKey string) error
	ListSurveys(ctx context.Context, sessionKey string) ([]limesurvey.Survey, error)
	ListParticipants(ctx context.Context, sessionKey, surveyID string, start, limit int,
		unused bool, attributes []string, conditions map[string]string) ([]limesurvey.Participant, error)
	GetParticipantProperties(ctx context.Context, sessionKey, surveyID string, tokenQuery any) (map[string]any, error)
	ExportResponsesByToken(ctx context.Context, sessionKey, surveyID, token string, start, limit int) (json.RawMessage, error)
}

// ResolveParticipants finds the participant records of one eligible survey
// that belong to the given email and enriches each with the participant's
// full property set. Failures are soft: a survey where nothing matches, or
// where the listing call fails, yields zero records.
func ResolveParticipants(
	ctx context.Context,
	gw Gateway,
	sessionKey string,
	surveyID string,
	email string,
	attributeKeys []string,
) []limesurvey.Participant {
	participants, err := gw.ListParticipants(ctx, sessionKey, surveyID,
		0, participantPageSize, false,
		NormalizeAttributeKeys(attributeKeys),
		map[string]string{"email": email})
	if err != nil {
		slog.Warn("Failed to list participants", "survey_id", surveyID, "error", err)
		return nil
	}

	var resolved []limesurvey.Participant

	for _, p := range participants {
		// The server-side filter is a substring match; require an exact one.
		if p.Info.Email != email {
			continue
		}

		enrichParticipant(ctx, gw, sessionKey, surveyID, &p)
		resolved = append(resolved, p)
	}

	return resolved
}

// enrichParticipant merges the participant's full property set into its
// Extra map. Lookup goes by numeric participant id first and falls back to
// the token when that yields nothing usable. Enrichment keys override
// collected ones; an error-status response is skipped, not raised.
func enrichParticipant(ctx context.Context, gw Gateway, sessionKey, surveyID string, p *limesurvey.Participant) {
	var props map[string]any

	if p.TID != "" {
		tid := limesurvey.FlexString(p.TID).Int(0)
		if tid > 0 {
			result, err := gw.GetParticipantProperties(ctx, sessionKey, surveyID, tid)
			if err != nil {
				slog.Debug("Participant property lookup by tid failed",
					"survey_id", surveyID, "tid", p.TID, "error", err)
			} else {
				props = result
			}
		}
	}

	if len(props) == 0 && p.Token != "" {
		result, err := gw.GetParticipantProperties(ctx, sessionKey, surveyID, p.Token)
		if err != nil {
			slog.Debug("Participant property lookup by token failed",
				"survey_id", surveyID, "error", err)
		} else {
			props = result
		}
	}

	if len(props) == 0 {
		return
	}

	if status, ok := props["status"].(string); ok && strings.Contains(status, "Error") {
		slog.Debug("Participant property lookup returned error status",
			"survey_id", surveyID, "status", status)
		return
	}

	if p.Extra == nil {
		p.Extra = map[string]string{}
	}

	for key, value := range props {
		if s, ok := propertyString(value); ok {
			p.Extra[key] = s
		}
	}
}

// propertyString renders a property value as a string. Nulls and
// structured values are dropped.
func propertyString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	default:
		return "", false
	}
}

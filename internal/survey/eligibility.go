// Package survey implements the survey-reconciliation core: deciding which
// surveys apply to a user, resolving their participation tokens, analyzing
// exported answers, and assembling the per-user dashboard list.
package survey

import (
	"log/slog"
	"time"

	"github.com/limeboard/limeboard/pkg/limesurvey"
)

// dateLayouts are the datetime formats the RemoteControl API uses for
// startdate/expires values.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseSurveyDate parses a survey date string. Empty or unparsable values
// report ok=false and are treated as "not set".
func parseSurveyDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// Eligible reports whether a survey is active and inside its start/expiry
// window at the given time. A start exactly at now is eligible; an expiry
// exactly at now is not.
func Eligible(s limesurvey.Survey, now time.Time) bool {
	if s.Active != "Y" {
		return false
	}

	if start, ok := parseSurveyDate(string(s.StartDate)); ok && start.After(now) {
		return false
	}

	if expires, ok := parseSurveyDate(string(s.Expires)); ok && !expires.After(now) {
		return false
	}

	return true
}

// FilterEligible returns the ordered subset of surveys passing the
// eligibility invariant. Records missing required fields are skipped with
// a diagnostic; one bad record never fails the batch.
func FilterEligible(surveys []limesurvey.Survey, now time.Time) []limesurvey.Survey {
	var eligible []limesurvey.Survey

	for _, s := range surveys {
		if s.SID == "" || s.Active == "" {
			slog.Warn("Skipping survey with missing required fields",
				"sid", s.SID, "title", s.Title)
			continue
		}

		if !Eligible(s, now) {
			slog.Debug("Survey not eligible", "sid", s.SID,
				"active", s.Active, "startdate", s.StartDate, "expires", s.Expires)
			continue
		}

		eligible = append(eligible, s)
	}

	return eligible
}

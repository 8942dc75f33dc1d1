// Package models defines the view models served to the host platform.
package models

import "time"

// User identifies the signed-in platform user a request is made for.
// The host's session layer supplies both values; the email is what ties
// the user to LimeSurvey participant records.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SurveyView is the normalized per-survey entry shown on the dashboard.
type SurveyView struct {
	// Title is the survey title, possibly reformatted via the operator's
	// title templates.
	Title string `json:"title"`
	// URL is the per-user survey access link (carries the token).
	URL string `json:"url"`
	// Completed reports whether the survey was submitted at least once,
	// driven by the uses-left counter, never by decode success.
	Completed bool `json:"completed"`
	// CompletionPercentage is the answered/total ratio in [0,100].
	CompletionPercentage int `json:"completion_percentage"`
	// Attributes are the deduplicated display values of the configured
	// extra participant attributes, in configured order.
	Attributes []string `json:"attributes,omitempty"`
	// Responses maps substantive answer fields to their values, keyed by
	// the field names as returned by the remote side.
	Responses map[string]string `json:"responses,omitempty"`
	// ResponseID is the remote response identifier when present.
	ResponseID string `json:"responseid,omitempty"`
	StartDate  string `json:"startdate,omitempty"`
	Expires    string `json:"expires,omitempty"`
}

// UserSurveyList is the full per-user result: the cache entry and the
// payload of GET /v1/surveys.
type UserSurveyList struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Surveys  []SurveyView `json:"surveys"`
	CachedAt time.Time    `json:"_cached_at,omitzero"`
}

// ClearCacheResult is the payload of DELETE /v1/surveys/cache.
type ClearCacheResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

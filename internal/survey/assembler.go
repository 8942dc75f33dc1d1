package survey

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/limeboard/limeboard/internal/models"
	"github.com/limeboard/limeboard/pkg/limesurvey"
)

// indexPathPattern truncates everything after the RemoteControl endpoint's
// index.php segment when deriving the public survey URL.
var indexPathPattern = regexp.MustCompile(`/index\.php.*`)

// Options carries the remote connection settings and the operator's
// display configuration.
type Options struct {
	APIURL           string
	Username         string
	Password         string
	ExtraAttributes  []string
	TitleFormat      string
	TitleFormatsByID string
}

// Assembler runs the full per-user reconciliation: one RemoteControl
// session, eligible surveys, participant resolution, export analysis, and
// the assembled dashboard list.
type Assembler struct {
	gw     Gateway
	opts   Options
	titles *TitleFormatter
	now    func() time.Time
}

func NewAssembler(gw Gateway, opts Options) *Assembler {
	return &Assembler{
		gw:     gw,
		opts:   opts,
		titles: NewTitleFormatter(opts.TitleFormatsByID, opts.TitleFormat),
		now:    time.Now,
	}
}

// Assemble builds the survey list for one user. A failure to open the
// session or to list surveys fails the whole run; everything below that
// level degrades per survey or per participant instead.
func (a *Assembler) Assemble(ctx context.Context, user models.User) (models.UserSurveyList, error) {
	sessionKey, err := a.gw.GetSessionKey(ctx, a.opts.Username, a.opts.Password)
	if err != nil {
		return models.UserSurveyList{}, fmt.Errorf("opening session: %w", err)
	}

	defer func() {
		if err := a.gw.ReleaseSessionKey(context.WithoutCancel(ctx), sessionKey); err != nil {
			slog.Warn("Failed to release session key", "error", err)
		}
	}()

	surveys, err := a.gw.ListSurveys(ctx, sessionKey)
	if err != nil {
		return models.UserSurveyList{}, fmt.Errorf("listing surveys: %w", err)
	}

	now := a.now()
	list := models.UserSurveyList{
		Success:  true,
		Surveys:  []models.SurveyView{},
		CachedAt: now,
	}

	for _, s := range FilterEligible(surveys, now) {
		participants := ResolveParticipants(ctx, a.gw, sessionKey, string(s.SID), user.Email, a.opts.ExtraAttributes)

		for _, p := range participants {
			list.Surveys = append(list.Surveys, a.buildView(ctx, sessionKey, s, p))
		}
	}

	slog.Info("Assembled survey list",
		"user_id", user.ID, "surveys", len(list.Surveys))

	return list, nil
}

// buildView produces the dashboard entry for one (survey, participant)
// pair. Export failures degrade to a zero analysis.
func (a *Assembler) buildView(ctx context.Context, sessionKey string, s limesurvey.Survey, p limesurvey.Participant) models.SurveyView {
	var analysis Analysis

	raw, err := a.gw.ExportResponsesByToken(ctx, sessionKey, string(s.SID), p.Token, 0, 1)
	if err != nil {
		slog.Warn("Failed to export responses",
			"survey_id", s.SID, "error", err)
	} else {
		analysis = AnalyzeExport(raw)
		if analysis.Diagnostic != "" {
			slog.Debug("Export yielded no responses",
				"survey_id", s.SID, "reason", analysis.Diagnostic)
		}
	}

	ApplyUsesLeft(&analysis, p)

	return models.SurveyView{
		Title:                a.titles.Format(s.Title, string(s.SID), p),
		URL:                  SurveyURL(a.opts.APIURL, string(s.SID), p.Token),
		Completed:            analysis.Completed,
		CompletionPercentage: analysis.Completion,
		Attributes:           a.collectAttributes(p),
		Responses:            analysis.Responses,
		ResponseID:           analysis.ResponseID,
		StartDate:            string(s.StartDate),
		Expires:              string(s.Expires),
	}
}

// collectAttributes resolves the configured attribute keys against the
// participant record, deduplicating by value and preserving the
// configured order.
func (a *Assembler) collectAttributes(p limesurvey.Participant) []string {
	var values []string
	seen := map[string]struct{}{}

	for _, key := range a.opts.ExtraAttributes {
		if key == "" {
			continue
		}

		value := participantValue(p, key)
		if value == "" {
			continue
		}

		if _, dup := seen[value]; dup {
			continue
		}

		seen[value] = struct{}{}
		values = append(values, value)
	}

	return values
}

// SurveyURL derives the public per-token survey link from the
// RemoteControl endpoint URL.
func SurveyURL(apiURL, surveyID, token string) string {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return ""
	}

	base := parsed.Scheme + "://" + parsed.Host + parsed.Path
	base = indexPathPattern.ReplaceAllString(base, "/index.php")

	return base + "/survey?sid=" + surveyID + "&token=" + url.QueryEscape(token)
}

// Package service holds the application services sitting between the HTTP
// handlers and the survey reconciliation core.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/limeboard/limeboard/internal/config"
	"github.com/limeboard/limeboard/internal/i18n"
	"github.com/limeboard/limeboard/internal/models"
	"github.com/limeboard/limeboard/internal/observability"
	"github.com/limeboard/limeboard/pkg/cache"
)

// surveysCacheName labels cache metrics for the per-user survey list cache.
const surveysCacheName = "user_surveys"

// Assembler produces the full survey list for one user in a single
// RemoteControl session.
type Assembler interface {
	Assemble(ctx context.Context, user models.User) (models.UserSurveyList, error)
}

// SurveysService serves per-user survey lists from a TTL cache, falling
// back to a live reconciliation run on miss. Failed runs are never cached,
// so the next request retries.
type SurveysService struct {
	assembler Assembler
	cache     *cache.LoaderCache[string, models.UserSurveyList]
	cfg       *config.Config
	metrics   observability.CacheMetrics
}

// NewSurveysService creates the service. metrics may be nil when metrics
// are disabled.
func NewSurveysService(assembler Assembler, cfg *config.Config, metrics observability.CacheMetrics) *SurveysService {
	return &SurveysService{
		assembler: assembler,
		cache: cache.NewLoaderCache[string, models.UserSurveyList](
			cfg.CacheMaxEntries, cfg.CacheTTL,
			func(userID string) string { return userID },
		),
		cfg:     cfg,
		metrics: metrics,
	}
}

// GetSurveys returns the survey list for the given user. Errors never
// escape: a misconfigured connection or a failed reconciliation run comes
// back as an unsuccessful list carrying a localized message, with the
// technical detail logged instead of exposed.
func (s *SurveysService) GetSurveys(ctx context.Context, user models.User) models.UserSurveyList {
	if check, ok := s.cfg.ValidateLimeSurvey(); !ok {
		slog.Warn("LimeSurvey connection not configured", "check", check, "user_id", user.ID)
		return s.failure(configMessageKey(check))
	}

	list, hit, err := s.cache.GetWithStats(ctx, user.ID, func(ctx context.Context, _ string) (models.UserSurveyList, error) {
		loaded, err := s.assembler.Assemble(ctx, user)
		if err != nil {
			return models.UserSurveyList{}, err
		}

		if len(loaded.Surveys) == 0 {
			loaded.Message = i18n.T(s.cfg.Locale, i18n.MsgNoSurveys)
		}

		return loaded, nil
	})

	s.recordCacheStats(ctx, hit, err)

	if err != nil {
		slog.Error("Failed to load surveys", "user_id", user.ID, "error", err)
		return s.failure(i18n.MsgErrorConnection)
	}

	return list
}

// ClearCache drops the cached list for one user so the next request runs a
// fresh reconciliation.
func (s *SurveysService) ClearCache(userID string) models.ClearCacheResult {
	s.cache.Invalidate(userID)

	slog.Info("Cleared survey cache", "user_id", userID)

	return models.ClearCacheResult{
		Success: true,
		Message: i18n.T(s.cfg.Locale, i18n.MsgCacheCleared),
	}
}

func (s *SurveysService) failure(messageKey string) models.UserSurveyList {
	return models.UserSurveyList{
		Success:  false,
		Message:  i18n.T(s.cfg.Locale, messageKey),
		Surveys:  []models.SurveyView{},
		CachedAt: time.Time{},
	}
}

func (s *SurveysService) recordCacheStats(ctx context.Context, hit bool, err error) {
	if s.metrics == nil || err != nil {
		return
	}

	if hit {
		s.metrics.RecordHit(ctx, surveysCacheName)
	} else {
		s.metrics.RecordMiss(ctx, surveysCacheName)
	}
}

func configMessageKey(check string) string {
	if check == "placeholder" {
		return i18n.MsgErrorConfigURL
	}
	return i18n.MsgErrorConfig
}

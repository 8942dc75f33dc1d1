package handlers

import (
	"context"
	"net/http"

	"github.com/limeboard/limeboard/internal/api/response"
	"github.com/limeboard/limeboard/internal/api/validation"
	"github.com/limeboard/limeboard/internal/models"
)

// SurveysService is the application service behind the surveys endpoints.
type SurveysService interface {
	GetSurveys(ctx context.Context, user models.User) models.UserSurveyList
	ClearCache(userID string) models.ClearCacheResult
}

// SurveysHandler handles the per-user survey list endpoints.
type SurveysHandler struct {
	service SurveysService
}

// NewSurveysHandler creates a new surveys handler.
func NewSurveysHandler(service SurveysService) *SurveysHandler {
	return &SurveysHandler{service: service}
}

type listSurveysParams struct {
	UserID string `form:"user_id" validate:"required,max=64"`
	Email  string `form:"email" validate:"required,email"`
}

type clearCacheParams struct {
	UserID string `form:"user_id" validate:"required,max=64"`
}

// List handles GET /v1/surveys?user_id=...&email=...
//
// The response is always 200 with a UserSurveyList; configuration and
// connection problems come back as an unsuccessful list with a localized
// message rather than an HTTP error, so the host can render it directly.
func (h *SurveysHandler) List(w http.ResponseWriter, r *http.Request) {
	var params listSurveysParams
	if err := validation.ValidateAndDecodeQueryParams(r, &params); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	list := h.service.GetSurveys(r.Context(), models.User{ID: params.UserID, Email: params.Email})

	response.RespondJSON(w, http.StatusOK, list)
}

// ClearCache handles DELETE /v1/surveys/cache?user_id=...
func (h *SurveysHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	var params clearCacheParams
	if err := validation.ValidateAndDecodeQueryParams(r, &params); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result := h.service.ClearCache(params.UserID)

	response.RespondJSON(w, http.StatusOK, result)
}

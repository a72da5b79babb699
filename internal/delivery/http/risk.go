package http

import (
	"finance-dashboard/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupRisk(v1 *echo.Group) {
	risk := v1.Group("/risk")
	{
		risk.GET("/questions", h.GetRiskQuestions)
		risk.GET("/profile", h.GetRiskProfile)
		risk.POST("/profile", h.SaveRiskProfile)
	}
}

func (h *HttpAPIHandler) GetRiskQuestions(c echo.Context) error {
	return ok(c, "Risk questionnaire", h.service.RiskService.Questions())
}

func (h *HttpAPIHandler) GetRiskProfile(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}

	profile, err := h.service.RiskService.GetUserProfile(c.Request().Context(), auth.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Risk profile", map[string]interface{}{
		"profile": profile,
		"summary": h.service.RiskService.ProfileSummary(profile),
	})
}

func (h *HttpAPIHandler) SaveRiskProfile(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.RiskProfileRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	profile, err := h.service.RiskService.SaveUserProfile(c.Request().Context(), auth.UserID, req.Answers)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Risk profile saved", map[string]interface{}{
		"profile": profile,
		"summary": h.service.RiskService.ProfileSummary(profile),
	})
}

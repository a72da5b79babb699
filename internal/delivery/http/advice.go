package http

import (
	"finance-dashboard/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAdvice(v1 *echo.Group) {
	v1.POST("/advice", h.Advice)
}

func (h *HttpAPIHandler) Advice(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.AdviceRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	resp, err := h.service.RecommendationService.Advice(c.Request().Context(), auth.UserID, req.Question)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Advice", resp)
}

package http

import (
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAlerts(v1 *echo.Group) {
	alerts := v1.Group("/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.POST("", h.CreateAlert)
		alerts.DELETE("/:id", h.RemoveAlert)
		alerts.POST("/check", h.CheckAlerts)
	}
}

func (h *HttpAPIHandler) ListAlerts(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.ListAlertsRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	alerts, err := h.service.AlertService.List(c.Request().Context(), auth.UserID, req.Symbol)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Alerts", alerts)
}

func (h *HttpAPIHandler) CreateAlert(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.CreateAlertRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	id, err := h.service.AlertService.Add(c.Request().Context(), auth.UserID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, "Alert created", dto.CreateAlertResponse{ID: id})
}

func (h *HttpAPIHandler) RemoveAlert(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}

	removed, err := h.service.AlertService.Remove(c.Request().Context(), auth.UserID, pathParam(c, "id"))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Alert removal processed", dto.RemoveAlertResponse{Removed: removed})
}

// CheckAlerts evaluates pending alerts against caller-supplied values and notifies
// the owners of the ones that triggered.
func (h *HttpAPIHandler) CheckAlerts(c echo.Context) error {
	if _, err := h.authenticateAdmin(c); err != nil {
		return h.fail(c, err)
	}
	var req dto.CheckAlertsRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()

	var kinds []model.AlertKind
	if req.Kind != "" {
		kinds = append(kinds, model.AlertKind(req.Kind))
	}
	triggered, err := h.service.AlertService.Check(ctx, req.Values, kinds...)
	if err != nil {
		return h.fail(c, err)
	}

	for _, alert := range triggered {
		if err := h.service.NotificationService.NotifyAlert(ctx, alert); err != nil {
			h.log.WarnContext(ctx, "Triggered alert not delivered", logger.ErrorField(err), logger.StringField("alert_id", alert.ID))
		}
	}
	return ok(c, "Alerts checked", triggered)
}

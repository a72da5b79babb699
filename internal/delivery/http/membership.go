package http

import (
	"strconv"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/service"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func (h *HttpAPIHandler) SetupMemberships(v1 *echo.Group) {
	memberships := v1.Group("/memberships")
	{
		memberships.GET("/plans", h.GetPlans)
		memberships.GET("/me", h.GetMyMembership)
		memberships.POST("", h.Subscribe)
	}

	v1.POST("/conversions", h.TrackConversion)
	v1.POST("/waitlist", h.JoinWaitlist)

	admin := v1.Group("/admin")
	{
		admin.GET("/conversions", h.GetConversionMetrics)
		admin.GET("/waitlist", h.ListWaitlist)
		admin.POST("/waitlist/:id/approve", h.ApproveWaitlist)
	}
}

func (h *HttpAPIHandler) GetPlans(c echo.Context) error {
	return ok(c, "Plans", service.Plans())
}

func (h *HttpAPIHandler) GetMyMembership(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}

	membership, err := h.service.MembershipService.GetUserMembership(c.Request().Context(), auth.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Membership", membership)
}

func (h *HttpAPIHandler) Subscribe(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.SubscribeRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	membership, err := h.service.MembershipService.Subscribe(c.Request().Context(), auth.UserID, req.Plan)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, "Subscribed", membership)
}

// TrackConversion records a funnel event. Authentication is optional and only ties
// the event to a user.
func (h *HttpAPIHandler) TrackConversion(c echo.Context) error {
	var req dto.TrackConversionRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	param := dto.TrackConversionParam{
		Event:  req.Event,
		Value:  decimal.NewFromFloat(req.Value),
		Source: req.Source,
	}
	if len(req.Metadata) > 0 {
		if err := sonic.Unmarshal(req.Metadata, &param.Metadata); err != nil {
			return h.fail(c, dto.ErrInvalidInput)
		}
	}
	if auth, err := h.authenticate(c); err == nil {
		param.UserID = &auth.UserID
	}

	if err := h.service.MembershipService.TrackConversion(c.Request().Context(), param); err != nil {
		return h.fail(c, err)
	}
	return created(c, "Conversion tracked", nil)
}

func (h *HttpAPIHandler) GetConversionMetrics(c echo.Context) error {
	if _, err := h.authenticateAdmin(c); err != nil {
		return h.fail(c, err)
	}

	metrics, err := h.service.MembershipService.ConversionMetrics(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Conversion metrics", metrics)
}

func (h *HttpAPIHandler) JoinWaitlist(c echo.Context) error {
	var req dto.JoinWaitlistRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	entry, err := h.service.MembershipService.JoinWaitlist(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, "Joined waitlist", entry)
}

func (h *HttpAPIHandler) ListWaitlist(c echo.Context) error {
	if _, err := h.authenticateAdmin(c); err != nil {
		return h.fail(c, err)
	}

	entries, err := h.service.MembershipService.ListWaitlist(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Waitlist", entries)
}

func (h *HttpAPIHandler) ApproveWaitlist(c echo.Context) error {
	if _, err := h.authenticateAdmin(c); err != nil {
		return h.fail(c, err)
	}
	id, err := strconv.ParseUint(pathParam(c, "id"), 10, 64)
	if err != nil {
		return h.fail(c, dto.ErrInvalidInput)
	}

	entry, err := h.service.MembershipService.ApproveWaitlist(c.Request().Context(), uint(id))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Waitlist entry approved", entry)
}

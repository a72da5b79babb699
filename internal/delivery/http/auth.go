package http

import (
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAuth(v1 *echo.Group) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/resume", h.Resume)
		auth.GET("/verify", h.VerifyEmail)
		auth.POST("/logout", h.Logout)
	}

	v1.GET("/me", h.Me)
	v1.PUT("/me/telegram", h.LinkTelegram)
}

func (h *HttpAPIHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	user, err := h.service.AuthService.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, "User registered, check your email to verify the account", toUserResponse(user, ""))
}

func (h *HttpAPIHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	token, err := h.service.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Logged in", token)
}

func (h *HttpAPIHandler) Resume(c echo.Context) error {
	var req dto.ResumeRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	token, err := h.service.AuthService.Resume(c.Request().Context(), req.RememberToken)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Session resumed", token)
}

func (h *HttpAPIHandler) VerifyEmail(c echo.Context) error {
	var req dto.VerifyRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	verified, err := h.service.AuthService.VerifyEmail(c.Request().Context(), req.Token)
	if err != nil {
		return h.fail(c, err)
	}
	if !verified {
		return h.fail(c, dto.ErrNotFound)
	}
	return ok(c, "Email verified", nil)
}

func (h *HttpAPIHandler) Logout(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.service.AuthService.Logout(c.Request().Context(), auth.UserID); err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Logged out", nil)
}

func (h *HttpAPIHandler) Me(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()

	user, err := h.service.AuthService.GetUser(ctx, auth.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	membership, err := h.service.MembershipService.GetUserMembership(ctx, auth.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Current user", toUserResponse(user, membership.Plan.Name))
}

func (h *HttpAPIHandler) LinkTelegram(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.LinkTelegramRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	if err := h.service.AuthService.LinkTelegram(c.Request().Context(), auth.UserID, req.ChatID); err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Telegram chat linked", nil)
}

func toUserResponse(user *model.User, membership string) dto.UserResponse {
	resp := dto.UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		RiskProfile:   user.RiskProfile.String,
		Membership:    membership,
	}
	if user.LastLogin.Valid {
		resp.LastLogin = &user.LastLogin.Time
	}
	if user.TelegramChatID.Valid {
		resp.TelegramChatID = &user.TelegramChatID.Int64
	}
	if user.RiskScore.Valid {
		score := int(user.RiskScore.Int32)
		resp.RiskScore = &score
	}
	return resp
}

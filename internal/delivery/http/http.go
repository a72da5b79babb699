package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/service"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	ctx       context.Context
	cfg       *config.Config
	log       *logger.Logger
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, cfg *config.Config, log *logger.Logger, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		ctx:       ctx,
		cfg:       cfg,
		log:       log,
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.Use(middleware.NewCORSMiddleware(h.cfg.API.CorsAllowedOrigins))

	base := h.echo.Group("/api")
	v1 := base.Group("/v1", middleware.NewRateLimiterMiddleware(h.cfg.API.RequestsPerSecond, h.cfg.API.RequestBurst))
	h.SetupAuth(v1)
	h.SetupPortfolios(v1)
	h.SetupAlerts(v1)
	h.SetupMarket(v1)
	h.SetupRisk(v1)
	h.SetupAdvice(v1)
	h.SetupMemberships(v1)
	h.SetupJobs(v1)
}

// bind decodes the request into req and runs struct validation on it.
func (h *HttpAPIHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request", dto.ErrInvalidInput)
	}
	if err := h.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", dto.ErrInvalidInput, err.Error())
	}
	return nil
}

// authenticate runs the auth guard on the Authorization header.
func (h *HttpAPIHandler) authenticate(c echo.Context) (dto.AuthResult, error) {
	result := h.service.AuthService.Guard(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
	if !result.Authenticated {
		return result, fmt.Errorf("%w: %s", dto.ErrUnauthorized, result.Reason)
	}
	return result, nil
}

func (h *HttpAPIHandler) authenticateAdmin(c echo.Context) (dto.AuthResult, error) {
	result, err := h.authenticate(c)
	if err != nil {
		return result, err
	}
	if !result.IsAdmin {
		return result, dto.ErrForbidden
	}
	return result, nil
}

// fail maps a service error to its HTTP status.
func (h *HttpAPIHandler) fail(c echo.Context, err error) error {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		h.log.ErrorContext(c.Request().Context(), "Request failed",
			logger.ErrorField(err),
			logger.StringField("path", c.Path()))
		message = "internal server error"
	}
	return c.JSON(code, dto.NewBaseResponse(code, message, nil))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dto.ErrInvalidInput),
		errors.Is(err, dto.ErrInvalidSymbol),
		errors.Is(err, dto.ErrInvalidShares):
		return http.StatusBadRequest
	case errors.Is(err, dto.ErrInvalidCredentials),
		errors.Is(err, dto.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, dto.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, dto.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dto.ErrDuplicatePortfolio),
		errors.Is(err, dto.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, dto.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, dto.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse(message, data))
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, message, data))
}

func pathParam(c echo.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}

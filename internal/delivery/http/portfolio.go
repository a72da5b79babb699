package http

import (
	"net/http"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const defaultHistoryRange = "1m"

func (h *HttpAPIHandler) SetupPortfolios(v1 *echo.Group) {
	portfolios := v1.Group("/portfolios")
	{
		portfolios.GET("", h.ListPortfolios)
		portfolios.POST("", h.CreatePortfolio)
		portfolios.GET("/:name", h.GetPortfolio)
		portfolios.DELETE("/:name", h.DeletePortfolio)
		portfolios.POST("/:name/positions", h.AddPosition)
		portfolios.GET("/:name/valuation", h.GetValuation)
		portfolios.GET("/:name/history", h.GetPerformanceHistory)
		portfolios.GET("/:name/risk", h.GetPortfolioRisk)
		portfolios.GET("/:name/recommendations", h.GetRecommendations)
		portfolios.GET("/:name/report", h.GetReport)
	}
}

func (h *HttpAPIHandler) ListPortfolios(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}

	portfolios, err := h.service.PortfolioService.ListPortfolios(c.Request().Context(), auth.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	resp := make([]dto.PortfolioResponse, 0, len(portfolios))
	for i := range portfolios {
		resp = append(resp, toPortfolioResponse(&portfolios[i], nil))
	}
	return ok(c, "Portfolios", resp)
}

func (h *HttpAPIHandler) CreatePortfolio(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.CreatePortfolioRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	portfolio, err := h.service.PortfolioService.CreatePortfolio(c.Request().Context(), auth.UserID, req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, "Portfolio created", toPortfolioResponse(portfolio, nil))
}

func (h *HttpAPIHandler) GetPortfolio(c echo.Context) error {
	portfolio, err := h.loadPortfolio(c)
	if err != nil {
		return h.fail(c, err)
	}
	valuation := h.service.ValuationService.Value(c.Request().Context(), portfolio.Positions)
	return ok(c, "Portfolio", toPortfolioResponse(portfolio, &valuation))
}

func (h *HttpAPIHandler) DeletePortfolio(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.service.PortfolioService.DeletePortfolio(c.Request().Context(), auth.UserID, pathParam(c, "name")); err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Portfolio deleted", nil)
}

func (h *HttpAPIHandler) AddPosition(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.AddPositionRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	portfolio, err := h.service.PortfolioService.AddPosition(c.Request().Context(), auth.UserID, pathParam(c, "name"), req.Symbol, decimal.NewFromFloat(req.Shares))
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, "Position added", toPortfolioResponse(portfolio, nil))
}

func (h *HttpAPIHandler) GetValuation(c echo.Context) error {
	portfolio, err := h.loadPortfolio(c)
	if err != nil {
		return h.fail(c, err)
	}

	valuation := h.service.ValuationService.Value(c.Request().Context(), portfolio.Positions)
	return ok(c, "Portfolio valuation", map[string]interface{}{
		"valuation": valuation,
		"summary":   h.service.ValuationService.Summary(valuation),
	})
}

func (h *HttpAPIHandler) GetPerformanceHistory(c echo.Context) error {
	portfolio, err := h.loadPortfolio(c)
	if err != nil {
		return h.fail(c, err)
	}
	period := c.QueryParam("range")
	if period == "" {
		period = defaultHistoryRange
	}

	points, err := h.service.ValuationService.PerformanceHistory(c.Request().Context(), portfolio.Positions, period)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Portfolio history", points)
}

func (h *HttpAPIHandler) GetPortfolioRisk(c echo.Context) error {
	portfolio, err := h.loadPortfolio(c)
	if err != nil {
		return h.fail(c, err)
	}

	valuation := h.service.ValuationService.Value(c.Request().Context(), portfolio.Positions)
	return ok(c, "Portfolio risk", h.service.RiskService.AnalyzePortfolioRisk(valuation))
}

func (h *HttpAPIHandler) GetRecommendations(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.RecommendationsRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()

	portfolio, err := h.service.PortfolioService.GetPortfolio(ctx, auth.UserID, pathParam(c, "name"))
	if err != nil {
		return h.fail(c, err)
	}
	valuation := h.service.ValuationService.Value(ctx, portfolio.Positions)

	resp := dto.RecommendationsResponse{
		Trades: h.service.RecommendationService.TradeRecommendations(valuation),
	}
	if req.WithAI {
		personalized := h.service.RecommendationService.Personalized(ctx, auth.UserID, valuation)
		resp.Personalized = &personalized
	}
	return ok(c, "Recommendations", resp)
}

func (h *HttpAPIHandler) GetReport(c echo.Context) error {
	auth, err := h.authenticate(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req dto.ReportRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	report, err := h.service.ReportService.Generate(c.Request().Context(), auth.UserID, pathParam(c, "name"), req.WithAI)
	if err != nil {
		return h.fail(c, err)
	}
	if req.Format == dto.ReportFormatHTML {
		rendered, err := h.service.ReportService.RenderHTML(report)
		if err != nil {
			return h.fail(c, err)
		}
		return c.HTML(http.StatusOK, rendered.Content)
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=UTF-8", []byte(report.Content))
}

// loadPortfolio authenticates the caller and loads the portfolio named in the path.
func (h *HttpAPIHandler) loadPortfolio(c echo.Context) (*model.Portfolio, error) {
	auth, err := h.authenticate(c)
	if err != nil {
		return nil, err
	}
	return h.service.PortfolioService.GetPortfolio(c.Request().Context(), auth.UserID, pathParam(c, "name"))
}

func toPortfolioResponse(portfolio *model.Portfolio, valuation *dto.PortfolioValuation) dto.PortfolioResponse {
	resp := dto.PortfolioResponse{
		Name:      portfolio.Name,
		CreatedAt: portfolio.CreatedAt,
		Positions: make([]dto.PositionResponse, 0, len(portfolio.Positions)),
		Valuation: valuation,
	}
	for _, p := range portfolio.Positions {
		resp.Positions = append(resp.Positions, dto.PositionResponse{
			Symbol:    p.Symbol,
			Shares:    p.Shares,
			CostBasis: p.CostBasis,
		})
	}
	return resp
}

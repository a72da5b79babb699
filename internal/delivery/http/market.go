package http

import (
	"strconv"
	"strings"

	"finance-dashboard/internal/dto"

	"github.com/labstack/echo/v4"
)

const (
	defaultNewsLimit  = 10
	maxNewsLimit      = 50
	defaultSearchDays = 7
	maxSearchDays     = 30
)

func (h *HttpAPIHandler) SetupMarket(v1 *echo.Group) {
	market := v1.Group("/market")
	{
		market.GET("/quote/:symbol", h.GetQuote)
		market.GET("/news", h.GetNews)
		market.GET("/news/search", h.SearchNews)
		market.GET("/movers", h.GetMovers)
		market.GET("/sectors", h.GetSectors)
	}
}

func (h *HttpAPIHandler) GetQuote(c echo.Context) error {
	quote, err := h.service.MarketService.Quote(c.Request().Context(), pathParam(c, "symbol"))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Quote", quote)
}

func (h *HttpAPIHandler) GetNews(c echo.Context) error {
	limit := queryInt(c, "limit", defaultNewsLimit, maxNewsLimit)
	news, err := h.service.MarketService.News(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Market news", news)
}

func (h *HttpAPIHandler) SearchNews(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return h.fail(c, dto.ErrInvalidInput)
	}
	days := queryInt(c, "days", defaultSearchDays, maxSearchDays)

	news, err := h.service.MarketService.Search(c.Request().Context(), query, days)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "News search", news)
}

func (h *HttpAPIHandler) GetMovers(c echo.Context) error {
	movers, err := h.service.MarketService.Movers(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Market movers", movers)
}

func (h *HttpAPIHandler) GetSectors(c echo.Context) error {
	sectors, err := h.service.MarketService.SectorPerformance(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Sector performance", sectors)
}

// queryInt reads a positive integer query parameter, clamped to limit.
func queryInt(c echo.Context, name string, def, limit int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v <= 0 {
		return def
	}
	return min(v, limit)
}

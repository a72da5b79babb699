package repository

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/pkg/common"
	"finance-dashboard/pkg/httpclient"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/time/rate"
)

type YahooFinanceRepository interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
	GetHistory(ctx context.Context, symbol string, period string) ([]dto.PricePoint, error)
	GetMarketReturn(ctx context.Context) (float64, error)
}

type yahooFinanceRepository struct {
	chartClient    httpclient.HTTPClient
	summaryClient  httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

const (
	quoteSummaryModules = "summaryDetail,defaultKeyStatistics,assetProfile,price"

	pathMarketCap   = "$.quoteSummary.result[0].summaryDetail.marketCap.raw"
	pathForwardPE   = "$.quoteSummary.result[0].summaryDetail.forwardPE.raw"
	pathTrailingPE  = "$.quoteSummary.result[0].summaryDetail.trailingPE.raw"
	pathBeta        = "$.quoteSummary.result[0].summaryDetail.beta.raw"
	pathSummary     = "$.quoteSummary.result[0].assetProfile.longBusinessSummary"
	pathLongName    = "$.quoteSummary.result[0].price.longName"
	pathMarketCapPx = "$.quoteSummary.result[0].price.marketCap.raw"
)

func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	return newYahooFinanceRepository(cfg, log,
		httpclient.New(cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout, ""),
		httpclient.New(cfg.YahooFinance.QuoteSummaryURL, cfg.YahooFinance.Timeout, ""),
	)
}

func newYahooFinanceRepository(cfg *config.Config, log *logger.Logger, chartClient, summaryClient httpclient.HTTPClient) *yahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		chartClient:    chartClient,
		summaryClient:  summaryClient,
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), cfg.YahooFinance.MaxRequestPerMinute),
	}
}

func (r *yahooFinanceRepository) headers() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}
}

func (r *yahooFinanceRepository) wait(ctx context.Context) error {
	if !r.requestLimiter.Allow() {
		r.logger.DebugContext(ctx, "Yahoo Finance request limit reached, waiting",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
		)
		return r.requestLimiter.Wait(ctx)
	}
	return nil
}

func (r *yahooFinanceRepository) chart(ctx context.Context, symbol string, queryParams map[string]string) (*dto.YahooFinanceResponse, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, dto.ErrInvalidSymbol
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	var yahooResp dto.YahooFinanceResponse
	resp, err := r.chartClient.Get(ctx, "/"+url.PathEscape(symbol), queryParams, r.headers(), &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w: %w", dto.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", dto.ErrInvalidSymbol, symbol)
	case resp.StatusCode != http.StatusOK:
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("symbol", symbol),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("%w: yahoo finance api returned status %d", dto.ErrProviderUnavailable, resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", dto.ErrInvalidSymbol, symbol, yahooResp.Chart.Error.Description)
	}
	if len(yahooResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: no data returned for %s", dto.ErrInvalidSymbol, symbol)
	}
	return &yahooResp, nil
}

// GetQuote returns the latest quote. Fundamentals come from quoteSummary on a best-effort basis.
func (r *yahooFinanceRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	yahooResp, err := r.chart(ctx, symbol, map[string]string{
		"range":    "1d",
		"interval": "1d",
	})
	if err != nil {
		return nil, err
	}

	meta := yahooResp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("%w: no market price for %s", dto.ErrInvalidSymbol, symbol)
	}

	quote := &dto.Quote{
		Symbol:           cmp.Or(meta.Symbol, utils.NormalizeSymbol(symbol)),
		Name:             cmp.Or(meta.LongName, meta.ShortName),
		Price:            meta.RegularMarketPrice,
		PreviousClose:    cmp.Or(meta.PreviousClose, meta.ChartPreviousClose),
		Volume:           meta.RegularMarketVolume,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow,
		Currency:         cmp.Or(meta.Currency, "USD"),
		Timestamp:        utils.TimeNow(),
	}
	if meta.RegularMarketTime > 0 {
		quote.Timestamp = time.Unix(meta.RegularMarketTime, 0).In(utils.GetLocation())
	}
	if quote.PreviousClose > 0 {
		quote.ChangePercent = (quote.Price - quote.PreviousClose) / quote.PreviousClose * 100
	}

	if err := r.enrich(ctx, quote); err != nil {
		r.logger.DebugContext(ctx, "Quote summary unavailable", logger.StringField("symbol", quote.Symbol), logger.ErrorField(err))
	}
	return quote, nil
}

func (r *yahooFinanceRepository) enrich(ctx context.Context, quote *dto.Quote) error {
	if err := r.wait(ctx); err != nil {
		return err
	}

	var doc interface{}
	resp, err := r.summaryClient.Get(ctx, "/"+url.PathEscape(quote.Symbol), map[string]string{"modules": quoteSummaryModules}, r.headers(), &doc)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote summary returned status %d", resp.StatusCode)
	}
	applySummary(quote, doc)
	return nil
}

// applySummary copies the fields present in a quoteSummary document onto quote.
func applySummary(quote *dto.Quote, doc interface{}) {
	quote.MarketCap = cmp.Or(jsonFloat(doc, pathMarketCap), jsonFloat(doc, pathMarketCapPx), quote.MarketCap)
	quote.PERatio = cmp.Or(jsonFloat(doc, pathForwardPE), jsonFloat(doc, pathTrailingPE), quote.PERatio)
	quote.Beta = cmp.Or(jsonFloat(doc, pathBeta), quote.Beta)
	quote.Description = cmp.Or(jsonString(doc, pathSummary), quote.Description)
	quote.Name = cmp.Or(quote.Name, jsonString(doc, pathLongName))
}

func jsonValue(doc interface{}, path string) interface{} {
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	if list, ok := val.([]interface{}); ok {
		if len(list) == 0 {
			return nil
		}
		val = list[0]
	}
	return val
}

func jsonFloat(doc interface{}, path string) float64 {
	switch v := jsonValue(doc, path).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func jsonString(doc interface{}, path string) string {
	s, _ := jsonValue(doc, path).(string)
	return s
}

// GetHistory returns daily closes for the period, oldest first. Null closes are skipped.
func (r *yahooFinanceRepository) GetHistory(ctx context.Context, symbol string, period string) ([]dto.PricePoint, error) {
	days := utils.PeriodToDays(period)
	if days == 0 {
		return nil, fmt.Errorf("%w: unsupported range %q", dto.ErrInvalidInput, period)
	}

	now := utils.TimeNow()
	yahooResp, err := r.chart(ctx, symbol, map[string]string{
		"period1":        fmt.Sprintf("%d", now.AddDate(0, 0, -days).Unix()),
		"period2":        fmt.Sprintf("%d", now.Unix()),
		"interval":       "1d",
		"includePrePost": "false",
	})
	if err != nil {
		return nil, err
	}

	return pricePoints(yahooResp), nil
}

func pricePoints(yahooResp *dto.YahooFinanceResponse) []dto.PricePoint {
	result := yahooResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]dto.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		points = append(points, dto.PricePoint{
			Date:  time.Unix(ts, 0).In(utils.GetLocation()),
			Close: *closes[i],
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// GetMarketReturn returns the S&P 500 daily return in percent, or 0 when fewer than two closes exist.
func (r *yahooFinanceRepository) GetMarketReturn(ctx context.Context) (float64, error) {
	yahooResp, err := r.chart(ctx, common.SYMBOL_SP500, map[string]string{
		"range":    "5d",
		"interval": "1d",
	})
	if err != nil {
		return 0, err
	}
	return dailyReturn(pricePoints(yahooResp)), nil
}

func dailyReturn(points []dto.PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	prev := points[len(points)-2].Close
	last := points[len(points)-1].Close
	if prev == 0 {
		return 0
	}
	return (last - prev) / prev * 100
}

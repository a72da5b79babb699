package repository

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/pkg/httpclient"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"go.uber.org/ratelimit"
)

const alphaVantageTimeLayout = "20060102T150405"

type NewsRepository interface {
	GetMarketNews(ctx context.Context, limit int) ([]dto.NewsItem, error)
	Search(ctx context.Context, query string, days int) ([]dto.NewsItem, error)
}

type newsRepository struct {
	cfg          *config.Config
	logger       *logger.Logger
	alphaClient  httpclient.HTTPClient
	newsAPI      httpclient.HTTPClient
	alphaLimiter ratelimit.Limiter
}

func NewNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return newNewsRepository(cfg, log,
		httpclient.New(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.Timeout, ""),
		httpclient.New(cfg.NewsAPI.BaseURL, cfg.NewsAPI.Timeout, ""),
	)
}

func newNewsRepository(cfg *config.Config, log *logger.Logger, alphaClient, newsAPI httpclient.HTTPClient) *newsRepository {
	return &newsRepository{
		cfg:          cfg,
		logger:       log,
		alphaClient:  alphaClient,
		newsAPI:      newsAPI,
		alphaLimiter: ratelimit.New(cmp.Or(cfg.AlphaVantage.MaxRequestPerSecond, 1)),
	}
}

// GetMarketNews returns the latest financial-market headlines. Provider refusals and
// transport failures yield an empty list rather than an error.
func (r *newsRepository) GetMarketNews(ctx context.Context, limit int) ([]dto.NewsItem, error) {
	if limit <= 0 {
		limit = 10
	}

	// Take cannot be interrupted, so a request cancelled while waiting is dropped here.
	r.alphaLimiter.Take()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var avResp dto.AlphaVantageNewsResponse
	resp, err := r.alphaClient.Get(ctx, "/query", map[string]string{
		"function": "NEWS_SENTIMENT",
		"apikey":   r.cfg.AlphaVantage.APIKey,
		"topics":   "financial_markets",
		"sort":     "LATEST",
	}, nil, &avResp)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to fetch market news", logger.ErrorField(err))
		return []dto.NewsItem{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "Alpha Vantage returned Non-OK status", logger.IntField("status_code", resp.StatusCode))
		return []dto.NewsItem{}, nil
	}
	if avResp.Information != "" || avResp.Note != "" || avResp.Feed == nil {
		r.logger.WarnContext(ctx, "Alpha Vantage returned no feed",
			logger.StringField("information", avResp.Information),
			logger.StringField("note", avResp.Note))
		return []dto.NewsItem{}, nil
	}

	items := make([]dto.NewsItem, 0, limit)
	for _, item := range avResp.Feed {
		if len(items) >= limit {
			break
		}
		published, err := time.ParseInLocation(alphaVantageTimeLayout, item.TimePublished, time.UTC)
		if err != nil {
			published = utils.TimeNow()
		}
		items = append(items, dto.NewsItem{
			Title:       cmp.Or(item.Title, "Sin título"),
			Source:      cmp.Or(item.Source, "Fuente desconocida"),
			Description: cmp.Or(item.Summary, "Sin resumen disponible"),
			URL:         cmp.Or(item.URL, "#"),
			PublishedAt: published.In(utils.GetLocation()),
			Sentiment:   item.OverallSentimentScore,
		})
	}
	return items, nil
}

// Search queries NewsAPI for articles published within the last days.
func (r *newsRepository) Search(ctx context.Context, query string, days int) ([]dto.NewsItem, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", dto.ErrInvalidInput)
	}
	if days <= 0 {
		days = 7
	}

	var newsResp dto.NewsAPIResponse
	resp, err := r.newsAPI.Get(ctx, "/everything", map[string]string{
		"q":        query,
		"from":     utils.TimeNow().AddDate(0, 0, -days).Format("2006-01-02"),
		"language": r.cfg.NewsAPI.Language,
		"sortBy":   "relevancy",
	}, map[string]string{"X-Api-Key": r.cfg.NewsAPI.APIKey}, &newsResp)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to search news", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %w", dto.ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "NewsAPI returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("%w: newsapi returned status %d", dto.ErrProviderUnavailable, resp.StatusCode)
	}

	items := make([]dto.NewsItem, 0, len(newsResp.Articles))
	for _, a := range newsResp.Articles {
		items = append(items, dto.NewsItem{
			Title:       a.Title,
			Source:      a.Source.Name,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			URLToImage:  a.URLToImage,
		})
	}
	return items, nil
}

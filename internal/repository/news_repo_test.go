package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/pkg/httpclient"
	"finance-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNewsRepo(t *testing.T, alphaBody, newsBody string, newsStatus int) *newsRepository {
	t.Helper()
	alpha := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NEWS_SENTIMENT", r.URL.Query().Get("function"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, alphaBody)
	}))
	t.Cleanup(alpha.Close)

	newsAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "relevancy", r.URL.Query().Get("sortBy"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(newsStatus)
		fmt.Fprint(w, newsBody)
	}))
	t.Cleanup(newsAPI.Close)

	cfg := &config.Config{
		AlphaVantage: config.AlphaVantage{APIKey: "demo", MaxRequestPerSecond: 100},
		NewsAPI:      config.NewsAPI{APIKey: "secret", Language: "es"},
	}
	return newNewsRepository(cfg, logger.NewNop(),
		httpclient.New(alpha.URL, 5*time.Second, ""),
		httpclient.New(newsAPI.URL, 5*time.Second, ""),
	)
}

func TestNewsRepository_GetMarketNews(t *testing.T) {
	body := `{"feed":[
{"title":"Stocks rally","url":"https://example.com/a","time_published":"20250102T093000","summary":"Up","source":"Wire","overall_sentiment_score":0.4},
{"title":"","url":"","time_published":"bad","summary":"","source":"","overall_sentiment_score":-0.2},
{"title":"Third","url":"https://example.com/c","time_published":"20250101T080000","summary":"x","source":"Wire","overall_sentiment_score":0}]}`
	repo := newTestNewsRepo(t, body, `{}`, http.StatusOK)

	items, err := repo.GetMarketNews(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Stocks rally", items[0].Title)
	assert.Equal(t, "positivo", items[0].SentimentLabel())
	assert.True(t, items[0].PublishedAt.Equal(time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)))

	assert.Equal(t, "Sin título", items[1].Title)
	assert.Equal(t, "Fuente desconocida", items[1].Source)
	assert.Equal(t, "Sin resumen disponible", items[1].Description)
	assert.Equal(t, "#", items[1].URL)
	assert.Equal(t, "negativo", items[1].SentimentLabel())
}

func TestNewsRepository_GetMarketNewsRefusals(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "information notice", body: `{"Information":"rate limit reached"}`},
		{name: "note notice", body: `{"Note":"slow down"}`},
		{name: "missing feed", body: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestNewsRepo(t, tt.body, `{}`, http.StatusOK)
			items, err := repo.GetMarketNews(context.Background(), 5)
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestNewsRepository_Search(t *testing.T) {
	body := `{"status":"ok","totalResults":1,"articles":[{"source":{"name":"Reuters"},"title":"Fed holds","description":"Rates","url":"https://example.com/fed","urlToImage":"https://example.com/fed.png","publishedAt":"2025-01-02T10:00:00Z"}]}`
	repo := newTestNewsRepo(t, `{}`, body, http.StatusOK)

	items, err := repo.Search(context.Background(), "fed", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Reuters", items[0].Source)
	assert.Equal(t, "https://example.com/fed.png", items[0].URLToImage)

	_, err = repo.Search(context.Background(), "", 7)
	assert.ErrorIs(t, err, dto.ErrInvalidInput)
}

func TestNewsRepository_SearchProviderError(t *testing.T) {
	repo := newTestNewsRepo(t, `{}`, `{"status":"error","code":"apiKeyInvalid"}`, http.StatusUnauthorized)

	_, err := repo.Search(context.Background(), "fed", 7)
	assert.ErrorIs(t, err, dto.ErrProviderUnavailable)
}

func TestNewsRepository_GetMarketNewsCancelled(t *testing.T) {
	repo := newTestNewsRepo(t, `{"feed":[{"title":"never fetched"}]}`, `{}`, http.StatusOK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := repo.GetMarketNews(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, items)
}

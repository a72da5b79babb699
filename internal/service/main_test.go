package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/cache"
	"finance-dashboard/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Portfolio{},
		&model.Position{},
		&model.Alert{},
		&model.Membership{},
		&model.Conversion{},
		&model.WaitlistEntry{},
	))
	return db
}

const testJWTSecret = "test-secret-with-enough-bytes-0123"

func newTestConfig() *config.Config {
	return &config.Config{
		App:   config.App{Currency: "USD"},
		API:   config.API{AdviceRatePerMin: 2},
		Cache: config.Cache{DefaultExpiration: time.Minute, NewsExpiration: time.Minute, QuoteExpiration: time.Minute},
		Auth: config.Auth{
			JWTSecret:           testJWTSecret,
			TokenTTL:            time.Hour,
			RememberTTL:         24 * time.Hour,
			VerificationBaseURL: "https://app.example.com/verify",
			AdminEmails:         []string{"admin@example.com"},
		},
	}
}

func newTestCache() cache.Cache {
	return cache.NewCache(time.Minute, time.Minute)
}

var errProvider = errors.New("provider down")

type fakeYahoo struct {
	quotes       map[string]*dto.Quote
	history      map[string][]dto.PricePoint
	marketReturn float64
}

func (f *fakeYahoo) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, dto.ErrInvalidSymbol
	}
	return q, nil
}

func (f *fakeYahoo) GetHistory(ctx context.Context, symbol string, period string) ([]dto.PricePoint, error) {
	points, ok := f.history[symbol]
	if !ok {
		return nil, errProvider
	}
	return points, nil
}

func (f *fakeYahoo) GetMarketReturn(ctx context.Context) (float64, error) {
	return f.marketReturn, nil
}

type fakeNews struct {
	items []dto.NewsItem
	calls int
}

func (f *fakeNews) GetMarketNews(ctx context.Context, limit int) ([]dto.NewsItem, error) {
	f.calls++
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeNews) Search(ctx context.Context, query string, days int) ([]dto.NewsItem, error) {
	f.calls++
	return f.items, nil
}

type fakeSystemParams struct {
	tickers map[string]string
}

func (f *fakeSystemParams) Get(ctx context.Context, name string, destValue interface{}) error {
	return gorm.ErrRecordNotFound
}

func (f *fakeSystemParams) GetCompanyTickers(ctx context.Context) (map[string]string, error) {
	return f.tickers, nil
}

type fakeAI struct {
	answer   string
	err      error
	question string
	market   dto.MarketContext
	param    dto.PersonalizedPromptParam
}

func (f *fakeAI) Advise(ctx context.Context, question string, market dto.MarketContext) (string, error) {
	f.question = question
	f.market = market
	return f.answer, f.err
}

func (f *fakeAI) PersonalizedRecommendation(ctx context.Context, param dto.PersonalizedPromptParam) (string, error) {
	f.param = param
	return f.answer, f.err
}

type sentEmail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu      sync.Mutex
	enabled bool
	sent    []sentEmail
	err     error
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

type fakeTelegram struct {
	enabled bool
	chats   []int64
	err     error
}

func (f *fakeTelegram) Enabled() bool { return f.enabled }

func (f *fakeTelegram) SendMessageUser(ctx context.Context, message string, chatID int64, opts ...interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.chats = append(f.chats, chatID)
	return nil
}

func newTestMarketService(cfg *config.Config, yahoo *fakeYahoo, news *fakeNews) MarketService {
	return NewMarketService(cfg, logger.NewNop(), newTestCache(), yahoo, news, &fakeSystemParams{
		tickers: map[string]string{"apple": "AAPL", "microsoft": "MSFT"},
	})
}

package telegram

import (
	"bytes"
	"context"
	"database/sql"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/service"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type recordingSender struct {
	messages []string
}

func (r *recordingSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	r.messages = append(r.messages, what.(string))
	return &telebot.Message{}, nil
}

type fakeContext struct {
	telebot.Context
	chatID int64
	args   []string
	text   string
}

func (f *fakeContext) Chat() *telebot.Chat { return &telebot.Chat{ID: f.chatID} }
func (f *fakeContext) Args() []string { return f.args }
func (f *fakeContext) Text() string { return f.text }

type fakeAuth struct {
	service.AuthService
	users map[int64]*model.User
}

func (f *fakeAuth) GetUserByTelegram(ctx context.Context, chatID int64) (*model.User, error) {
	return f.users[chatID], nil
}

type fakePortfolios struct {
	service.PortfolioService
	portfolios []model.Portfolio
}

func (f *fakePortfolios) ListPortfolios(ctx context.Context, userID uint) ([]model.Portfolio, error) {
	return f.portfolios, nil
}

func (f *fakePortfolios) GetPortfolio(ctx context.Context, userID uint, name string) (*model.Portfolio, error) {
	for i := range f.portfolios {
		if f.portfolios[i].Name == name {
			return &f.portfolios[i], nil
		}
	}
	return nil, dto.ErrNotFound
}

type fakeValuation struct {
	service.ValuationService
}

func (f *fakeValuation) Value(ctx context.Context, positions []model.Position) dto.PortfolioValuation {
	return dto.PortfolioValuation{
		Snapshots: []dto.PositionSnapshot{{
			Symbol:      "AAPL",
			Shares:      decimal.NewFromInt(10),
			MarketValue: decimal.NewFromInt(1800),
			ReturnPct:   decimal.NewFromInt(20),
		}},
		TotalValue: decimal.NewFromInt(1800),
		Valued:     1,
	}
}

func (f *fakeValuation) Summary(valuation dto.PortfolioValuation) dto.PortfolioSummary {
	return dto.PortfolioSummary{
		TotalValue:     decimal.NewFromInt(1800),
		TotalGainLoss:  decimal.NewFromInt(300),
		TotalReturnPct: decimal.NewFromInt(20),
	}
}

func newTestHandler(sender *recordingSender) *TelegramBotHandler {
	cfg := &config.Config{App: config.App{Currency: "USD"}}
	limiter := telegram.NewTelegramRateLimiter(&config.TelegramConfig{
		MaxGlobalRequestPerSecond: 100,
		MaxUserRequestPerSecond:   100,
		RatelimitExpireDuration:   time.Minute,
	}, logger.NewNop(), sender)

	services := &service.Service{
		AuthService: &fakeAuth{users: map[int64]*model.User{42: {ID: 1, Email: "ana@example.com"}}},
		PortfolioService: &fakePortfolios{portfolios: []model.Portfolio{
			{ID: 1, Name: "Main"},
			{ID: 2, Name: "Growth"},
		}},
		ValuationService: &fakeValuation{},
	}
	return NewTelegramBotHandler(context.Background(), cfg, logger.NewNop(), nil, limiter, echo.New(), services)
}

func TestHandlePortfolio(t *testing.T) {
	tests := []struct {
		name   string
		chatID int64
		args   []string
		want   string
	}{
		{name: "unlinked chat", chatID: 7, want: "ID de chat 7"},
		{name: "first portfolio by default", chatID: 42, want: "📊 Portafolio: Main"},
		{name: "named portfolio", chatID: 42, args: []string{"Growth"}, want: "📊 Portafolio: Growth"},
		{name: "unknown portfolio", chatID: 42, args: []string{"Retiro"}, want: `No encontré el portafolio "Retiro".`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			h := newTestHandler(sender)

			err := h.handlePortfolio(context.Background(), &fakeContext{chatID: tt.chatID, args: tt.args})
			require.NoError(t, err)
			require.Len(t, sender.messages, 1)
			assert.Contains(t, sender.messages[0], tt.want)
		})
	}
}

func TestHandleText(t *testing.T) {
	sender := &recordingSender{}
	h := newTestHandler(sender)

	require.NoError(t, h.handleText(context.Background(), &fakeContext{chatID: 42, text: "hola"}))
	assert.Empty(t, sender.messages)

	require.NoError(t, h.handleText(context.Background(), &fakeContext{chatID: 42, text: "/buylist"}))
	assert.Equal(t, []string{messageUnknown}, sender.messages)
}

func TestHandleWebhookSecret(t *testing.T) {
	h := newTestHandler(&recordingSender{})
	h.cfg.Telegram.WebhookSecret = "s3cret"

	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/telegram/webhook", bytes.NewBufferString(`{"update_id":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(headerSecretToken, "wrong")
	rec := httptest.NewRecorder()

	require.NoError(t, h.handleWebhook(h.echo.NewContext(req, rec)))
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)
}

func TestFormatPortfolioSummary(t *testing.T) {
	h := &fakeValuation{}
	valuation := h.Value(context.Background(), nil)
	valuation.Skipped = 1

	got := formatPortfolioSummary("Main", valuation, h.Summary(valuation), "USD")
	assert.Contains(t, got, "💰 Valor total: $1,800.00")
	assert.Contains(t, got, "📈 Ganancia/Pérdida: $300.00 (20.00%)")
	assert.Contains(t, got, "⚠️ Sin cotización: 1")
	assert.Contains(t, got, "• AAPL: 10 acciones, $1,800.00 (20.00%)")
}

func TestFormatAlertList(t *testing.T) {
	assert.Equal(t, "No tienes alertas configuradas.", formatAlertList(nil))

	triggeredAt := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	got := formatAlertList([]model.Alert{
		{Symbol: "AAPL", Kind: model.AlertKindPrice, Comparator: model.ComparatorAbove, Threshold: 200},
		{Symbol: "TSLA", Kind: model.AlertKindPrice, Comparator: model.ComparatorBelow, Threshold: 150.5, Triggered: true, TriggeredAt: sql.NullTime{Time: triggeredAt, Valid: true}},
	})
	assert.Contains(t, got, "⏳ Pendientes (1)\n• AAPL price > 200\n")
	assert.Contains(t, got, "🔔 Activadas (1)\n• TSLA price < 150.5 (activada el")
}

func TestFormatNews(t *testing.T) {
	assert.Equal(t, "No hay noticias disponibles en este momento.", formatNews(nil))

	got := formatNews([]dto.NewsItem{
		{Title: "Fed holds rates", Source: "Reuters", Sentiment: 0.4, URL: "https://example.com/fed"},
		{Title: "Oil slides", Source: "Bloomberg", Sentiment: -0.2},
	})
	assert.Contains(t, got, "1. Fed holds rates\n   🟢 positivo · Reuters\n   https://example.com/fed\n")
	assert.Contains(t, got, "2. Oil slides\n   🔴 negativo · Bloomberg\n")
}

package telegram

import (
	"context"
	"testing"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type recordingSender struct {
	chats    []string
	messages []interface{}
}

func (r *recordingSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	r.chats = append(r.chats, to.Recipient())
	r.messages = append(r.messages, what)
	return &telebot.Message{}, nil
}

func newTestLimiter(sender Sender) *TelegramRateLimiter {
	return NewTelegramRateLimiter(&config.TelegramConfig{
		MaxGlobalRequestPerSecond: 30,
		MaxUserRequestPerSecond:   5,
		RatelimitExpireDuration:   time.Minute,
	}, logger.NewNop(), sender)
}

func TestTelegramRateLimiter_SendMessageUser(t *testing.T) {
	sender := &recordingSender{}
	tl := newTestLimiter(sender)

	require.NoError(t, tl.SendMessageUser(context.Background(), "hola", 42))
	assert.Equal(t, []string{"42"}, sender.chats)
	assert.Equal(t, []interface{}{"hola"}, sender.messages)
	assert.True(t, tl.Enabled())
}

func TestTelegramRateLimiter_CleanupExpired(t *testing.T) {
	tl := newTestLimiter(&recordingSender{})
	tl.getUserLimiter(1)
	tl.getUserLimiter(2)

	tl.cleanupExpired(time.Now())
	assert.Len(t, tl.userLimiters, 2)

	tl.cleanupExpired(time.Now().Add(2 * time.Minute))
	assert.Empty(t, tl.userLimiters)
}

func TestFormatAlertMessage(t *testing.T) {
	created := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	msg := FormatAlertMessage(AlertMessage{
		Symbol:      "AAPL",
		Kind:        "price",
		Comparator:  "above",
		Threshold:   200,
		Value:       201.5,
		CreatedAt:   created,
		TriggeredAt: created.Add(time.Hour),
	})

	assert.Contains(t, msg, "Alerta de AAPL")
	assert.Contains(t, msg, "El price ha superado 200 (actual: 201.50)")
	assert.Contains(t, msg, "2025-01-02 09:00")
	assert.Contains(t, msg, "2025-01-02 10:00")

	below := FormatAlertMessage(AlertMessage{Symbol: "TSLA", Kind: "price", Comparator: "below", Threshold: 150, Value: 149})
	assert.Contains(t, below, "caído por debajo de 150")
}

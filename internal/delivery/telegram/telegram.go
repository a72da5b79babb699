package telegram

import (
	"context"

	"finance-dashboard/config"
	"finance-dashboard/internal/service"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/telegram"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

type TelegramBotHandler struct {
	ctx      context.Context
	cfg      *config.Config
	bot      *telebot.Bot
	log      *logger.Logger
	telegram *telegram.TelegramRateLimiter
	echo     *echo.Echo
	service  *service.Service
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot *telebot.Bot,
	telegram *telegram.TelegramRateLimiter,
	echo *echo.Echo,
	service *service.Service) *TelegramBotHandler {
	return &TelegramBotHandler{
		ctx:      ctx,
		cfg:      cfg,
		log:      log,
		bot:      bot,
		telegram: telegram,
		echo:     echo,
		service:  service,
	}
}

// Start registers the webhook with Telegram and the command handlers. Without a bot
// or a webhook URL the Telegram surface stays off.
func (t *TelegramBotHandler) Start() {
	if t.bot == nil {
		t.log.Info("Telegram bot is disabled")
		return
	}
	t.log.Info("Starting Telegram bot...")

	if t.cfg.Telegram.WebhookURL == "" {
		t.log.Info("Telegram webhook is disabled")
		return
	}

	t.log.Info("Setting webhook URL", logger.StringField("webhook_url", t.cfg.Telegram.WebhookURL))
	err := t.bot.SetWebhook(&telebot.Webhook{
		SecretToken: t.cfg.Telegram.WebhookSecret,
		Endpoint: &telebot.WebhookEndpoint{
			PublicURL: t.cfg.Telegram.WebhookURL,
		},
	})
	if err != nil {
		t.log.Error("Failed to set telegram webhook", logger.ErrorField(err))
		return
	}

	t.telegram.StartCleanupExpired(t.ctx)
	t.RegisterHandlers()
}

// Stop waits for the rate limiter cleanup to exit. Updates arrive through the
// webhook, so there is no poller to stop.
func (t *TelegramBotHandler) Stop() {
	if t.bot == nil {
		return
	}
	t.log.Info("Stopping Telegram bot...")
	t.telegram.StopCleanupExpired()
	t.log.Info("Telegram bot stopped successfully")
}

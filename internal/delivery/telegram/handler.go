package telegram

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

const headerSecretToken = "X-Telegram-Bot-Api-Secret-Token"

func (t *TelegramBotHandler) WithContext(handler func(ctx context.Context, c telebot.Context) error) func(c telebot.Context) error {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(t.ctx, 2*time.Minute)
		defer cancel()

		return handler(ctx, c)
	}
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.echo.POST("/api/v1/telegram/webhook", t.handleWebhook)

	t.bot.Handle("/start", t.WithContext(t.handleStart))
	t.bot.Handle("/help", t.WithContext(t.handleHelp))
	t.bot.Handle("/portfolio", t.WithContext(t.handlePortfolio))
	t.bot.Handle("/alerts", t.WithContext(t.handleAlerts))
	t.bot.Handle("/news", t.WithContext(t.handleNews))
	t.bot.Handle(telebot.OnText, t.WithContext(t.handleText))
}

func (t *TelegramBotHandler) handleWebhook(c echo.Context) error {
	if secret := t.cfg.Telegram.WebhookSecret; secret != "" {
		got := c.Request().Header.Get(headerSecretToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.JSON(http.StatusUnauthorized, dto.NewUnauthorizedResponse("invalid webhook secret"))
		}
	}

	var update telebot.Update
	if err := c.Bind(&update); err != nil {
		t.log.ErrorContext(c.Request().Context(), "Cannot bind telegram update", logger.ErrorField(err))
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	t.bot.ProcessUpdate(update)
	return c.JSON(http.StatusOK, dto.NewBaseResponse(http.StatusOK, "ok", nil))
}

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	return t.telegram.Reply(ctx, c, messageStart, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (t *TelegramBotHandler) handleHelp(ctx context.Context, c telebot.Context) error {
	return t.telegram.Reply(ctx, c, messageHelp, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (t *TelegramBotHandler) handleText(ctx context.Context, c telebot.Context) error {
	if strings.HasPrefix(c.Text(), "/") {
		return t.telegram.Reply(ctx, c, messageUnknown)
	}
	return nil
}

// linkedUser resolves the account linked to the chat. It replies and returns nil when
// there is none.
func (t *TelegramBotHandler) linkedUser(ctx context.Context, c telebot.Context) (*model.User, error) {
	chatID := c.Chat().ID
	user, err := t.service.AuthService.GetUserByTelegram(ctx, chatID)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to resolve telegram user", logger.ErrorField(err))
		return nil, t.telegram.Reply(ctx, c, commonErrorInternal)
	}
	if user == nil {
		return nil, t.telegram.Reply(ctx, c, fmt.Sprintf(messageNotLinked, chatID))
	}
	return user, nil
}

package telegram

import (
	"context"
	"fmt"
	"strings"

	"finance-dashboard/internal/dto"
	"finance-dashboard/pkg/logger"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleNews(ctx context.Context, c telebot.Context) error {
	news, err := t.service.MarketService.News(ctx, newsHeadlines)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to get news for telegram", logger.ErrorField(err))
		return t.telegram.Reply(ctx, c, "No se pudieron obtener las noticias en este momento.")
	}
	return t.telegram.Reply(ctx, c, formatNews(news), &telebot.SendOptions{DisableWebPagePreview: true})
}

func formatNews(news []dto.NewsItem) string {
	if len(news) == 0 {
		return "No hay noticias disponibles en este momento."
	}

	var sb strings.Builder
	sb.WriteString("📰 Últimas noticias del mercado\n")
	for i, item := range news {
		label := item.SentimentLabel()
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, item.Title))
		sb.WriteString(fmt.Sprintf("   %s %s · %s\n", dto.SentimentEmoji(label), label, item.Source))
		if item.URL != "" {
			sb.WriteString("   " + item.URL + "\n")
		}
	}
	return sb.String()
}

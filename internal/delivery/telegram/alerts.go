package telegram

import (
	"context"
	"fmt"
	"strings"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleAlerts(ctx context.Context, c telebot.Context) error {
	user, err := t.linkedUser(ctx, c)
	if user == nil {
		return err
	}

	alerts, err := t.service.AlertService.List(ctx, user.ID, "")
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to list alerts for telegram", logger.ErrorField(err))
		return t.telegram.Reply(ctx, c, commonErrorInternal)
	}
	return t.telegram.Reply(ctx, c, formatAlertList(alerts))
}

func formatAlertList(alerts []model.Alert) string {
	if len(alerts) == 0 {
		return "No tienes alertas configuradas."
	}

	var pending, triggered []string
	for _, a := range alerts {
		condition := ">"
		if a.Comparator == model.ComparatorBelow {
			condition = "<"
		}
		line := fmt.Sprintf("• %s %s %s %g", a.Symbol, a.Kind, condition, a.Threshold)
		if a.Triggered {
			if a.TriggeredAt.Valid {
				line += fmt.Sprintf(" (activada el %s)", utils.PrettyDate(a.TriggeredAt.Time))
			}
			triggered = append(triggered, line)
			continue
		}
		pending = append(pending, line)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ Pendientes (%d)\n", len(pending)))
	for _, line := range pending {
		sb.WriteString(line + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n🔔 Activadas (%d)\n", len(triggered)))
	for _, line := range triggered {
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

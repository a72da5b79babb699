package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/service"
	"finance-dashboard/pkg/logger"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handlePortfolio(ctx context.Context, c telebot.Context) error {
	user, err := t.linkedUser(ctx, c)
	if user == nil {
		return err
	}

	name := strings.TrimSpace(strings.Join(c.Args(), " "))
	if name == "" {
		portfolios, err := t.service.PortfolioService.ListPortfolios(ctx, user.ID)
		if err != nil {
			return t.telegram.Reply(ctx, c, commonErrorInternal)
		}
		if len(portfolios) == 0 {
			return t.telegram.Reply(ctx, c, "Todavía no tienes portafolios.")
		}
		name = portfolios[0].Name
	}

	portfolio, err := t.service.PortfolioService.GetPortfolio(ctx, user.ID, name)
	if errors.Is(err, dto.ErrNotFound) {
		return t.telegram.Reply(ctx, c, fmt.Sprintf("No encontré el portafolio %q.", name))
	}
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to get portfolio for telegram", logger.ErrorField(err))
		return t.telegram.Reply(ctx, c, commonErrorInternal)
	}

	valuation := t.service.ValuationService.Value(ctx, portfolio.Positions)
	summary := t.service.ValuationService.Summary(valuation)
	return t.telegram.Reply(ctx, c, formatPortfolioSummary(portfolio.Name, valuation, summary, t.cfg.App.Currency))
}

func formatPortfolioSummary(name string, valuation dto.PortfolioValuation, summary dto.PortfolioSummary, currency string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Portafolio: %s\n\n", name))
	sb.WriteString(fmt.Sprintf("💰 Valor total: %s\n", service.FormatMoney(summary.TotalValue, currency)))
	sb.WriteString(fmt.Sprintf("📈 Ganancia/Pérdida: %s (%s%%)\n", service.FormatMoney(summary.TotalGainLoss, currency), summary.TotalReturnPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("📦 Posiciones: %d\n", len(valuation.Snapshots)))
	if valuation.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("⚠️ Sin cotización: %d\n", valuation.Skipped))
	}

	if len(valuation.Snapshots) > 0 {
		sb.WriteString("\n")
	}
	for _, snap := range valuation.Snapshots {
		ret := "N/A"
		if !snap.ReturnUndefined {
			ret = snap.ReturnPct.StringFixed(2) + "%"
		}
		sb.WriteString(fmt.Sprintf("• %s: %s acciones, %s (%s)\n", snap.Symbol, snap.Shares.String(), service.FormatMoney(snap.MarketValue, currency), ret))
	}
	return sb.String()
}

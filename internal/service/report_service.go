package service

import (
	"context"
	"fmt"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/common"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/render"
	"finance-dashboard/pkg/utils"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const reportHeadlines = 5

type ReportService interface {
	Generate(ctx context.Context, userID uint, portfolioName string, withAI bool) (*dto.Report, error)
	RenderHTML(report *dto.Report) (*dto.Report, error)
}

type reportService struct {
	cfg              *config.Config
	log              *logger.Logger
	portfolioService PortfolioService
	valuationService ValuationService
	marketService    MarketService
	recommendations  RecommendationService
}

func NewReportService(
	cfg *config.Config,
	log *logger.Logger,
	portfolioService PortfolioService,
	valuationService ValuationService,
	marketService MarketService,
	recommendations RecommendationService,
) ReportService {
	return &reportService{
		cfg:              cfg,
		log:              log,
		portfolioService: portfolioService,
		valuationService: valuationService,
		marketService:    marketService,
		recommendations:  recommendations,
	}
}

// Generate builds the markdown investment report of one portfolio.
func (s *reportService) Generate(ctx context.Context, userID uint, portfolioName string, withAI bool) (*dto.Report, error) {
	portfolio, err := s.portfolioService.GetPortfolio(ctx, userID, portfolioName)
	if err != nil {
		return nil, err
	}

	valuation := s.valuationService.Value(ctx, portfolio.Positions)
	summary := s.valuationService.Summary(valuation)
	now := utils.TimeNow()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Informe de Inversión - %s\n\n", portfolio.Name))
	sb.WriteString(fmt.Sprintf("_Generado el %s_\n\n", utils.PrettyDate(now)))
	s.writePortfolioAnalysis(&sb, portfolio, valuation, summary)
	s.writeMarketAnalysis(ctx, &sb)
	if withAI {
		s.writeAIRecommendations(ctx, &sb, userID, portfolio, valuation)
	}

	return &dto.Report{
		Portfolio:   portfolio.Name,
		Format:      dto.ReportFormatMarkdown,
		Content:     sb.String(),
		GeneratedAt: now,
	}, nil
}

func (s *reportService) writePortfolioAnalysis(sb *strings.Builder, portfolio *model.Portfolio, valuation dto.PortfolioValuation, summary dto.PortfolioSummary) {
	best, worst := "N/A", "N/A"
	if summary.BestPerformer != nil {
		best = summary.BestPerformer.Symbol
	}
	if summary.WorstPerformer != nil {
		worst = summary.WorstPerformer.Symbol
	}

	sb.WriteString(fmt.Sprintf("## 📊 Análisis de Portafolio: %s\n\n", portfolio.Name))
	sb.WriteString("### 💰 Resumen General\n\n")
	sb.WriteString(fmt.Sprintf("- **Valor Total del Portafolio:** %s\n", s.formatMoney(summary.TotalValue)))
	sb.WriteString(fmt.Sprintf("- **Ganancia/Pérdida Total:** %s\n", s.formatMoney(summary.TotalGainLoss)))
	sb.WriteString(fmt.Sprintf("- **Rendimiento Total:** %s%%\n", summary.TotalReturnPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("- **Número de Posiciones:** %d\n", len(valuation.Snapshots)))
	if valuation.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("- **Posiciones sin cotización:** %d\n", valuation.Skipped))
	}

	sb.WriteString("\n### 🔍 Análisis de Rendimiento\n\n")
	sb.WriteString(fmt.Sprintf("- **Mejor Rendimiento:** %s\n", best))
	sb.WriteString(fmt.Sprintf("- **Peor Rendimiento:** %s\n", worst))

	sb.WriteString("\n### 📈 Desglose de Posiciones\n")
	for _, snap := range valuation.Snapshots {
		sb.WriteString(fmt.Sprintf("\n#### %s\n\n", snap.Symbol))
		sb.WriteString(fmt.Sprintf("- **Acciones:** %s\n", snap.Shares.String()))
		sb.WriteString(fmt.Sprintf("- **Precio Actual:** %s\n", s.formatMoney(snap.CurrentPrice)))
		sb.WriteString(fmt.Sprintf("- **Valor de Mercado:** %s\n", s.formatMoney(snap.MarketValue)))
		sb.WriteString(fmt.Sprintf("- **Ganancia/Pérdida:** %s\n", s.formatMoney(snap.GainLoss)))
		if snap.ReturnUndefined {
			sb.WriteString("- **Rendimiento:** N/A\n")
		} else {
			sb.WriteString(fmt.Sprintf("- **Rendimiento:** %s%%\n", snap.ReturnPct.StringFixed(2)))
		}
	}
	sb.WriteString("\n")
}

func (s *reportService) writeMarketAnalysis(ctx context.Context, sb *strings.Builder) {
	market := s.marketService.MarketContext(ctx, reportHeadlines, "")

	sb.WriteString("## 📈 Análisis de Mercado\n\n")
	sb.WriteString("### 📊 Indicadores Clave\n\n")
	sb.WriteString(fmt.Sprintf("- **S&P 500 (Hoy):** %s\n", utils.FormatPercentage(market.MarketReturn)))

	movers, err := s.marketService.Movers(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to get market movers for report", logger.ErrorField(err))
	}
	for _, m := range movers {
		if m.Symbol == common.SYMBOL_SP500 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- **%s:** %s\n", moverName(m), utils.FormatPercentage(m.ChangePercent)))
	}

	sb.WriteString("\n### 📰 Noticias Relevantes y Sentimiento del Mercado\n\n")
	if len(market.Headlines) == 0 {
		sb.WriteString("*No hay noticias relevantes disponibles en este momento.*\n\n")
		return
	}
	for _, article := range market.Headlines {
		label := article.SentimentLabel()
		sb.WriteString(fmt.Sprintf("- **%s**\n", utils.EscapeMarkdown(article.Title)))
		sb.WriteString(fmt.Sprintf("  - Sentimiento: %s %s\n", label, dto.SentimentEmoji(label)))
		sb.WriteString(fmt.Sprintf("  - Fuente: %s\n", utils.EscapeMarkdown(article.Source)))
	}
	sb.WriteString("\n")
}

func moverName(m dto.Mover) string {
	if m.Name != "" {
		return m.Name
	}
	return m.Symbol
}

// writeAIRecommendations goes through the advice rate limit of the user.
func (s *reportService) writeAIRecommendations(ctx context.Context, sb *strings.Builder, userID uint, portfolio *model.Portfolio, valuation dto.PortfolioValuation) {
	symbols := make([]string, 0, len(valuation.Snapshots))
	for _, snap := range valuation.Snapshots {
		symbols = append(symbols, snap.Symbol)
	}

	question := fmt.Sprintf(`Por favor, analiza este portafolio y proporciona recomendaciones estratégicas detalladas:

Portafolio: %s
Símbolos: %s
Valor Total: %s

Incluye:
1. Evaluación de la diversificación actual
2. Sugerencias de rebalanceo si es necesario
3. Oportunidades de crecimiento
4. Análisis de riesgos
5. Recomendaciones específicas para cada posición`,
		portfolio.Name, strings.Join(symbols, ", "), s.formatMoney(valuation.TotalValue))

	sb.WriteString("## 🤖 Recomendaciones Personalizadas de IA\n\n")
	advice, err := s.recommendations.Advice(ctx, userID, question)
	if err != nil {
		sb.WriteString(fmt.Sprintf("*Error al obtener asesoramiento: %v*\n", err))
		return
	}
	sb.WriteString(advice.Answer)
	sb.WriteString("\n")
}

func (s *reportService) RenderHTML(report *dto.Report) (*dto.Report, error) {
	html, err := render.HTML(report.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return &dto.Report{
		Portfolio:   report.Portfolio,
		Format:      dto.ReportFormatHTML,
		Content:     html,
		GeneratedAt: report.GeneratedAt,
	}, nil
}

func (s *reportService) formatMoney(amount decimal.Decimal) string {
	return FormatMoney(amount, s.cfg.App.Currency)
}

// FormatMoney renders amount in the currency's display format, falling back to USD
// for unknown codes.
func FormatMoney(amount decimal.Decimal, code string) string {
	currency := money.GetCurrency(code)
	if currency == nil {
		code = money.USD
		currency = money.GetCurrency(code)
	}
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

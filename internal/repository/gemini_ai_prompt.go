package repository

import (
	"fmt"
	"strings"

	"finance-dashboard/internal/dto"
)

const systemInstructionAdvisor = `Eres un asesor financiero profesional que responde en español.
Proporciona consejos claros, concisos y precisos basados en:
1. La pregunta del usuario
2. El contexto actual del mercado
3. Las últimas noticias relevantes y su sentimiento

Incluye advertencias cuando sea apropiado.
Mantén un tono profesional pero accesible.`

const systemInstructionPersonalized = `Eres un asesor financiero experto que proporciona recomendaciones
personalizadas detalladas y accionables. Tus recomendaciones siempre incluyen:
- Acciones específicas a tomar
- Datos cuantitativos
- Plazos temporales
- Gestión de riesgos`

func writeMarketContext(sb *strings.Builder, market dto.MarketContext) {
	sb.WriteString("Contexto actual del mercado:\n")
	sb.WriteString(fmt.Sprintf("- S&P 500 hoy: %.2f%%\n\n", market.MarketReturn))
	sb.WriteString("Últimas noticias relevantes:\n")
	if len(market.Headlines) == 0 {
		sb.WriteString("- Sin noticias disponibles\n")
	}
	for _, news := range market.Headlines {
		sb.WriteString(fmt.Sprintf("- %s (Sentimiento: %s)\n", news.Title, news.SentimentLabel()))
	}
	if q := market.Quote; q != nil {
		sb.WriteString(fmt.Sprintf("\nCotización actual de %s: $%.2f %s (%.2f%%)\n", q.Symbol, q.Price, q.Currency, q.ChangePercent))
	}
}

func promptAdvice(question string, market dto.MarketContext) string {
	var sb strings.Builder
	sb.WriteString("Contexto del mercado:\n")
	writeMarketContext(&sb, market)
	sb.WriteString("\nPregunta del usuario:\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n")
	return sb.String()
}

func promptPersonalized(param dto.PersonalizedPromptParam) string {
	var sb strings.Builder

	sb.WriteString("Basándote en la siguiente información, genera recomendaciones de inversión altamente personalizadas:\n\n")

	sb.WriteString("PERFIL DE INVERSOR:\n")
	sb.WriteString(fmt.Sprintf("Perfil de Riesgo: %s\n", param.Profile.Profile))
	sb.WriteString(fmt.Sprintf("Score de Riesgo: %d\n\n", param.Profile.Score))

	sb.WriteString("ANÁLISIS DE RIESGO ACTUAL:\n")
	sb.WriteString(fmt.Sprintf("- Nivel de riesgo: %s\n", param.Risk.RiskLevel))
	sb.WriteString(fmt.Sprintf("- Score de diversificación: %d\n", param.Risk.DiversificationScore))
	sb.WriteString(fmt.Sprintf("- Riesgo de concentración: %s\n\n", param.Risk.ConcentrationRisk))

	sb.WriteString("POSICIONES ACTUALES:\n")
	if len(param.Snapshots) == 0 {
		sb.WriteString("- Sin posiciones\n")
	}
	for _, s := range param.Snapshots {
		sb.WriteString(fmt.Sprintf("- %s: %s acciones, precio %s, valor %s, rendimiento %s%%\n",
			s.Symbol, s.Shares.String(), s.CurrentPrice.StringFixed(2), s.MarketValue.StringFixed(2), s.ReturnPct.StringFixed(2)))
	}

	sb.WriteString("\nANÁLISIS DE MERCADO:\n")
	writeMarketContext(&sb, param.Market)

	sb.WriteString(`
Proporciona recomendaciones específicas para:
1. Rebalanceo de portafolio (con porcentajes específicos)
2. Nuevas oportunidades de inversión (con puntos de entrada)
3. Gestión de riesgos (estrategias concretas)
4. Optimización de rendimiento
5. Estrategias de timing de mercado
6. Diversificación y cobertura

Para cada recomendación, incluye:
- Justificación detallada
- Métricas relevantes
- Temporalidad esperada
- Riesgos asociados
- Plan de implementación
`)
	return sb.String()
}

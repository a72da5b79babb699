package dto

const (
	SignalBuy       = "BUY"
	SignalSell      = "SELL"
	SignalHold      = "HOLD"
	SignalInitial   = "INITIAL"
	ActionDiversify = "DIVERSIFY"

	RiskLevelLow    = "Bajo"
	RiskLevelMedium = "Medio"
	RiskLevelHigh   = "Alto"
	RiskLevelNA     = "N/A"

	SentimentPositive = "positivo"
	SentimentNegative = "negativo"
	SentimentNeutral  = "neutral"

	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"

	ConversionSubscription = "subscription"
	ConversionSignup       = "signup"
	ConversionWaitlist     = "waitlist"

	ReportFormatMarkdown = "md"
	ReportFormatHTML     = "html"
)

// SentimentLabel maps an overall sentiment score to a label by its sign.
func SentimentLabel(score float64) string {
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func SentimentEmoji(label string) string {
	switch label {
	case SentimentPositive:
		return "🟢"
	case SentimentNegative:
		return "🔴"
	default:
		return "⚪"
	}
}

package dto

import "time"

type TradeRecommendation struct {
	Type        string            `json:"type"`
	Action      string            `json:"action,omitempty"`
	Symbol      string            `json:"symbol,omitempty"`
	Reason      string            `json:"reason"`
	Metrics     map[string]string `json:"metrics,omitempty"`
	Description string            `json:"description,omitempty"`
}

type MarketContext struct {
	MarketReturn float64    `json:"market_return"`
	Headlines    []NewsItem `json:"headlines"`
	Quote        *Quote     `json:"quote,omitempty"`
}

type AdviceRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type AdviceResponse struct {
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

type PersonalizedRecommendation struct {
	AIRecommendations string        `json:"ai_recommendations,omitempty"`
	Error             string        `json:"error,omitempty"`
	Risk              PortfolioRisk `json:"risk"`
	Timestamp         time.Time     `json:"timestamp"`
}

type RecommendationsResponse struct {
	Trades       []TradeRecommendation       `json:"trades"`
	Personalized *PersonalizedRecommendation `json:"personalized,omitempty"`
}

type RecommendationsRequest struct {
	WithAI bool `query:"ai"`
}

// PersonalizedPromptParam is everything the personalized recommendation prompt is built from.
type PersonalizedPromptParam struct {
	Profile   RiskProfile        `json:"profile"`
	Risk      PortfolioRisk      `json:"risk"`
	Snapshots []PositionSnapshot `json:"snapshots"`
	Market    MarketContext      `json:"market"`
}

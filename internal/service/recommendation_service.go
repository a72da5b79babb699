package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/common"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/ratelimit"
	"finance-dashboard/pkg/utils"
)

const adviceHeadlines = 3

type RecommendationService interface {
	TradeRecommendations(valuation dto.PortfolioValuation) []dto.TradeRecommendation
	Advice(ctx context.Context, userID uint, question string) (*dto.AdviceResponse, error)
	Personalized(ctx context.Context, userID uint, valuation dto.PortfolioValuation) dto.PersonalizedRecommendation
	CleanupLimiters(maxIdle time.Duration) int
}

type recommendationService struct {
	cfg           *config.Config
	log           *logger.Logger
	aiRepo        repository.AIRepository
	marketService MarketService
	riskService   RiskService
	adviceLimiter *ratelimit.LimiterStore
}

func NewRecommendationService(
	cfg *config.Config,
	log *logger.Logger,
	aiRepo repository.AIRepository,
	marketService MarketService,
	riskService RiskService,
) RecommendationService {
	return &recommendationService{
		cfg:           cfg,
		log:           log,
		aiRepo:        aiRepo,
		marketService: marketService,
		riskService:   riskService,
		adviceLimiter: ratelimit.PerMinute(cfg.API.AdviceRatePerMin),
	}
}

// TradeRecommendations flags sharp drops on cheap valuations as buys and sharp rallies
// on rich valuations as sells. An empty portfolio gets a single diversify hint.
func (s *recommendationService) TradeRecommendations(valuation dto.PortfolioValuation) []dto.TradeRecommendation {
	if len(valuation.Snapshots) == 0 {
		return []dto.TradeRecommendation{{
			Type:        dto.SignalInitial,
			Action:      dto.ActionDiversify,
			Description: "Considere iniciar posiciones en diferentes sectores del mercado para construir un portafolio diversificado.",
		}}
	}

	recommendations := []dto.TradeRecommendation{}
	for _, snap := range valuation.Snapshots {
		metrics := map[string]string{
			"price_change": utils.FormatPercentage(snap.ChangePercent),
			"pe_ratio":     fmt.Sprintf("%.2f", snap.PERatio),
		}
		switch {
		case snap.ChangePercent < -5 && snap.PERatio < 15:
			recommendations = append(recommendations, dto.TradeRecommendation{
				Type:    dto.SignalBuy,
				Symbol:  snap.Symbol,
				Reason:  "Oportunidad de compra: Caída significativa de precio y valuación atractiva",
				Metrics: metrics,
			})
		case snap.ChangePercent > 10 && snap.PERatio > 30:
			recommendations = append(recommendations, dto.TradeRecommendation{
				Type:    dto.SignalSell,
				Symbol:  snap.Symbol,
				Reason:  "Considerar toma de ganancias: Fuerte subida y valuación elevada",
				Metrics: metrics,
			})
		}
	}
	return recommendations
}

func (s *recommendationService) Advice(ctx context.Context, userID uint, question string) (*dto.AdviceResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", dto.ErrInvalidInput)
	}
	if !s.adviceLimiter.Allow(fmt.Sprintf(common.KEY_ADVICE_RATELIMIT, userID)) {
		return nil, dto.ErrRateLimited
	}

	market := s.marketService.MarketContext(ctx, adviceHeadlines, question)
	answer, err := s.aiRepo.Advise(ctx, question, market)
	if err != nil {
		return nil, err
	}
	return &dto.AdviceResponse{Answer: answer, Timestamp: utils.TimeNow()}, nil
}

// Personalized asks the model for recommendations tailored to the user's risk profile
// and holdings. A model failure is reported in the Error field.
func (s *recommendationService) Personalized(ctx context.Context, userID uint, valuation dto.PortfolioValuation) dto.PersonalizedRecommendation {
	risk := s.riskService.AnalyzePortfolioRisk(valuation)
	result := dto.PersonalizedRecommendation{Risk: risk, Timestamp: utils.TimeNow()}

	profile, err := s.riskService.GetUserProfile(ctx, userID)
	if err != nil {
		result.Error = fmt.Sprintf("Error generando recomendaciones: %v", err)
		return result
	}

	answer, err := s.aiRepo.PersonalizedRecommendation(ctx, dto.PersonalizedPromptParam{
		Profile:   profile,
		Risk:      risk,
		Snapshots: valuation.Snapshots,
		Market:    s.marketService.MarketContext(ctx, adviceHeadlines, ""),
	})
	if err != nil {
		result.Error = fmt.Sprintf("Error generando recomendaciones: %v", err)
		return result
	}
	result.AIRecommendations = answer
	return result
}

// CleanupLimiters forgets the advice limiters of users idle for longer than maxIdle.
func (s *recommendationService) CleanupLimiters(maxIdle time.Duration) int {
	return s.adviceLimiter.Cleanup(maxIdle)
}

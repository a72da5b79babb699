package service

import (
	"context"
	_ "embed"
	"fmt"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed risk_questionnaire.yaml
var riskQuestionnaireYAML []byte

type riskQuestionnaire struct {
	FallbackProfile string                      `yaml:"fallback_profile"`
	Questions       []dto.RiskQuestion          `yaml:"questions"`
	Profiles        []dto.RiskProfileDefinition `yaml:"profiles"`
}

type RiskService interface {
	Questions() []dto.RiskQuestion
	CalculateProfile(answers map[int]int) (dto.RiskProfile, error)
	ProfileForScore(score int) dto.RiskProfile
	ProfileSummary(profile dto.RiskProfile) dto.RiskProfileSummary
	AnalyzePortfolioRisk(valuation dto.PortfolioValuation) dto.PortfolioRisk
	SaveUserProfile(ctx context.Context, userID uint, answers map[int]int) (dto.RiskProfile, error)
	GetUserProfile(ctx context.Context, userID uint) (dto.RiskProfile, error)
}

type riskService struct {
	cfg           *config.Config
	log           *logger.Logger
	userRepo      repository.UserRepository
	questionnaire riskQuestionnaire
}

func NewRiskService(cfg *config.Config, log *logger.Logger, userRepo repository.UserRepository) (RiskService, error) {
	var q riskQuestionnaire
	if err := yaml.Unmarshal(riskQuestionnaireYAML, &q); err != nil {
		return nil, fmt.Errorf("failed to parse risk questionnaire: %w", err)
	}
	if len(q.Questions) == 0 || len(q.Profiles) == 0 {
		return nil, fmt.Errorf("risk questionnaire has no questions or profiles")
	}
	return &riskService{
		cfg:           cfg,
		log:           log,
		userRepo:      userRepo,
		questionnaire: q,
	}, nil
}

func (s *riskService) Questions() []dto.RiskQuestion {
	return s.questionnaire.Questions
}

// CalculateProfile sums the answer scores and classifies the total. Every question
// must be answered with one of its option scores.
func (s *riskService) CalculateProfile(answers map[int]int) (dto.RiskProfile, error) {
	total := 0
	for _, q := range s.questionnaire.Questions {
		answer, ok := answers[q.ID]
		if !ok {
			return dto.RiskProfile{}, fmt.Errorf("%w: question %d is not answered", dto.ErrInvalidInput, q.ID)
		}
		if !validOption(q, answer) {
			return dto.RiskProfile{}, fmt.Errorf("%w: answer %d is not valid for question %d", dto.ErrInvalidInput, answer, q.ID)
		}
		total += answer
	}
	if len(answers) != len(s.questionnaire.Questions) {
		return dto.RiskProfile{}, fmt.Errorf("%w: unknown question in answers", dto.ErrInvalidInput)
	}
	return s.ProfileForScore(total), nil
}

func validOption(q dto.RiskQuestion, score int) bool {
	for _, opt := range q.Options {
		if opt.Score == score {
			return true
		}
	}
	return false
}

// ProfileForScore looks the score up in the inclusive profile ranges. A score outside
// every range gets the fallback profile and keeps its own value.
func (s *riskService) ProfileForScore(score int) dto.RiskProfile {
	for _, def := range s.questionnaire.Profiles {
		if score >= def.MinScore && score <= def.MaxScore {
			return profileFromDefinition(def, score)
		}
	}
	for _, def := range s.questionnaire.Profiles {
		if def.Name == s.questionnaire.FallbackProfile {
			profile := profileFromDefinition(def, score)
			profile.Fallback = true
			return profile
		}
	}
	return dto.RiskProfile{Profile: s.questionnaire.FallbackProfile, Score: score, Fallback: true}
}

func profileFromDefinition(def dto.RiskProfileDefinition, score int) dto.RiskProfile {
	return dto.RiskProfile{
		Profile:           def.Name,
		Score:             score,
		Description:       def.Description,
		RecommendedAssets: def.RecommendedAssets,
		Allocation:        def.Allocation,
	}
}

func (s *riskService) ProfileSummary(profile dto.RiskProfile) dto.RiskProfileSummary {
	summary := dto.RiskProfileSummary{
		Profile:   profile.Profile,
		Score:     profile.Score,
		Horizon:   "Medio plazo",
		RiskTaken: "Medio",
		Objective: "Preservación",
	}
	if profile.Score > 15 {
		summary.Horizon = "Largo plazo"
		summary.Objective = "Crecimiento"
	}
	if profile.Score > 20 {
		summary.RiskTaken = "Alto"
	}
	return summary
}

// AnalyzePortfolioRisk rates concentration by the heaviest position weight and
// diversification by position count, then averages both into one level.
func (s *riskService) AnalyzePortfolioRisk(valuation dto.PortfolioValuation) dto.PortfolioRisk {
	if len(valuation.Snapshots) == 0 || !valuation.TotalValue.IsPositive() {
		return dto.PortfolioRisk{
			RiskLevel:            dto.RiskLevelNA,
			DiversificationScore: 0,
			ConcentrationRisk:    dto.RiskLevelNA,
		}
	}

	maxWeight := decimal.Zero
	unique := make(map[string]struct{}, len(valuation.Snapshots))
	for _, snap := range valuation.Snapshots {
		unique[snap.Symbol] = struct{}{}
		if w := snap.MarketValue.Div(valuation.TotalValue); w.GreaterThan(maxWeight) {
			maxWeight = w
		}
	}
	weight, _ := maxWeight.Float64()

	concentration := ConcentrationRisk(weight)
	diversification := DiversificationScore(len(valuation.Snapshots), len(unique))

	concentrationScore := map[string]float64{dto.RiskLevelLow: 1, dto.RiskLevelMedium: 2, dto.RiskLevelHigh: 3}[concentration]
	diversificationScore := 3.0
	switch {
	case diversification >= 70:
		diversificationScore = 1
	case diversification >= 40:
		diversificationScore = 2
	}

	level := dto.RiskLevelHigh
	switch avg := (concentrationScore + diversificationScore) / 2; {
	case avg <= 1.5:
		level = dto.RiskLevelLow
	case avg <= 2.5:
		level = dto.RiskLevelMedium
	}

	return dto.PortfolioRisk{
		RiskLevel:            level,
		DiversificationScore: diversification,
		ConcentrationRisk:    concentration,
	}
}

// ConcentrationRisk buckets the weight of the largest position.
func ConcentrationRisk(maxWeight float64) string {
	switch {
	case maxWeight > 0.30:
		return dto.RiskLevelHigh
	case maxWeight > 0.15:
		return dto.RiskLevelMedium
	default:
		return dto.RiskLevelLow
	}
}

func DiversificationScore(positions, uniqueSymbols int) int {
	return min(100, positions*10+uniqueSymbols*5)
}

func (s *riskService) SaveUserProfile(ctx context.Context, userID uint, answers map[int]int) (dto.RiskProfile, error) {
	profile, err := s.CalculateProfile(answers)
	if err != nil {
		return dto.RiskProfile{}, err
	}

	err = s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"risk_profile": profile.Profile,
		"risk_score":   profile.Score,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to save risk profile", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return dto.RiskProfile{}, fmt.Errorf("failed to save risk profile: %w", err)
	}
	return profile, nil
}

// GetUserProfile returns the stored profile of the user, or the fallback profile
// with a mid score when the questionnaire was never taken.
func (s *riskService) GetUserProfile(ctx context.Context, userID uint) (dto.RiskProfile, error) {
	user, err := s.userRepo.Get(ctx, model.GetUserParam{ID: &userID})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return dto.RiskProfile{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return dto.RiskProfile{}, dto.ErrNotFound
	}
	if !user.RiskScore.Valid {
		return s.defaultProfile(), nil
	}
	return s.ProfileForScore(int(user.RiskScore.Int32)), nil
}

func (s *riskService) defaultProfile() dto.RiskProfile {
	for _, def := range s.questionnaire.Profiles {
		if def.Name == s.questionnaire.FallbackProfile {
			return profileFromDefinition(def, (def.MinScore+def.MaxScore)/2)
		}
	}
	return dto.RiskProfile{Profile: s.questionnaire.FallbackProfile}
}

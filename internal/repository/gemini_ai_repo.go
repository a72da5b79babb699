package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type AIRepository interface {
	Advise(ctx context.Context, question string, market dto.MarketContext) (string, error)
	PersonalizedRecommendation(ctx context.Context, param dto.PersonalizedPromptParam) (string, error)
}

// textModel is the subset of the Gemini API used here.
type textModel interface {
	CountTokens(ctx context.Context, prompt string) (int, error)
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	model          textModel
}

func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiAIRepository(cfg, log, &genaiModel{client: genAiClient, model: cfg.Gemini.BaseModel}), nil
}

func newGeminiAIRepository(cfg *config.Config, log *logger.Logger, model textModel) *geminiAIRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute),
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		model:          model,
	}
}

func (r *geminiAIRepository) Advise(ctx context.Context, question string, market dto.MarketContext) (string, error) {
	prompt := promptAdvice(question, market)
	answer, err := r.sendRequest(ctx, systemInstructionAdvisor, prompt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to get advice from gemini", logger.ErrorField(err))
		return "", fmt.Errorf("failed to get advice: %w", err)
	}
	return answer, nil
}

func (r *geminiAIRepository) PersonalizedRecommendation(ctx context.Context, param dto.PersonalizedPromptParam) (string, error) {
	prompt := promptPersonalized(param)
	answer, err := r.sendRequest(ctx, systemInstructionPersonalized, prompt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to get personalized recommendation from gemini", logger.ErrorField(err))
		return "", fmt.Errorf("failed to get personalized recommendation: %w", err)
	}
	return answer, nil
}

func (r *geminiAIRepository) sendRequest(ctx context.Context, systemInstruction, prompt string) (string, error) {
	totalTokens, err := r.model.CountTokens(ctx, systemInstruction+"\n"+prompt)
	if err != nil {
		return "", fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.DebugContext(ctx, "Gemini token count",
		logger.IntField("total_tokens", totalTokens),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)
	if err := r.tokenLimiter.Wait(ctx, totalTokens); err != nil {
		return "", fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}
	if totalTokens > r.cfg.Gemini.MaxTokenPerMinute/2 {
		r.logger.WarnContext(ctx, "Token has exceeded 50% of the limit", logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
	}

	text, err := r.model.Generate(ctx, systemInstruction, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", dto.ErrProviderUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from gemini", dto.ErrProviderUnavailable)
	}
	return text, nil
}

type genaiModel struct {
	client *genai.Client
	model  string
}

func (g *genaiModel) CountTokens(ctx context.Context, prompt string) (int, error) {
	resp, err := g.client.Models.CountTokens(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func (g *genaiModel) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	temperature := float32(0.7)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Temperature:       &temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/shopspring/decimal"
)

const metricsWindowDays = 30

var plans = []dto.Plan{
	{
		Name:  dto.PlanBasic,
		Title: "Básico",
		Price: decimal.Zero,
		Features: []string{
			"Seguimiento de portafolio",
			"Noticias del mercado",
			"Alertas de precio",
		},
	},
	{
		Name:  dto.PlanPro,
		Title: "Pro",
		Price: decimal.RequireFromString("29.99"),
		Features: []string{
			"Todo lo del plan Básico",
			"Asesoramiento con IA",
			"Análisis de riesgo avanzado",
			"Informes descargables",
		},
	},
	{
		Name:  dto.PlanEnterprise,
		Title: "Enterprise",
		Price: decimal.RequireFromString("99.99"),
		Features: []string{
			"Todo lo del plan Pro",
			"Portafolios ilimitados",
			"Alertas por Telegram",
			"Soporte prioritario",
		},
	},
}

// Plans returns the plan catalogue ordered by price.
func Plans() []dto.Plan {
	return append([]dto.Plan(nil), plans...)
}

func findPlan(name string) (dto.Plan, bool) {
	for _, p := range plans {
		if p.Name == name {
			return p, true
		}
	}
	return dto.Plan{}, false
}

type MembershipService interface {
	GetUserMembership(ctx context.Context, userID uint) (*dto.MembershipResponse, error)
	Subscribe(ctx context.Context, userID uint, plan string) (*dto.MembershipResponse, error)
	TrackConversion(ctx context.Context, param dto.TrackConversionParam) error
	ConversionMetrics(ctx context.Context) (*dto.ConversionMetrics, error)
	JoinWaitlist(ctx context.Context, req dto.JoinWaitlistRequest) (*model.WaitlistEntry, error)
	ListWaitlist(ctx context.Context, status string) ([]model.WaitlistEntry, error)
	ApproveWaitlist(ctx context.Context, id uint) (*model.WaitlistEntry, error)
}

type membershipService struct {
	cfg            *config.Config
	log            *logger.Logger
	membershipRepo repository.MembershipRepository
	conversionRepo repository.ConversionRepository
	waitlistRepo   repository.WaitlistRepository
	unitOfWork     repository.UnitOfWork
}

func NewMembershipService(
	cfg *config.Config,
	log *logger.Logger,
	membershipRepo repository.MembershipRepository,
	conversionRepo repository.ConversionRepository,
	waitlistRepo repository.WaitlistRepository,
	unitOfWork repository.UnitOfWork,
) MembershipService {
	return &membershipService{
		cfg:            cfg,
		log:            log,
		membershipRepo: membershipRepo,
		conversionRepo: conversionRepo,
		waitlistRepo:   waitlistRepo,
		unitOfWork:     unitOfWork,
	}
}

// GetUserMembership returns the active membership, falling back to the basic plan.
func (s *membershipService) GetUserMembership(ctx context.Context, userID uint) (*dto.MembershipResponse, error) {
	membership, err := s.membershipRepo.GetActive(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get membership", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if membership == nil {
		basic, _ := findPlan(dto.PlanBasic)
		return &dto.MembershipResponse{Plan: basic, Status: model.MembershipStatusActive}, nil
	}

	plan, ok := findPlan(membership.Plan)
	if !ok {
		plan = dto.Plan{Name: membership.Plan, Title: membership.Plan, Price: membership.Price}
	}
	return &dto.MembershipResponse{Plan: plan, Status: membership.Status}, nil
}

func (s *membershipService) Subscribe(ctx context.Context, userID uint, planName string) (*dto.MembershipResponse, error) {
	plan, ok := findPlan(strings.ToLower(strings.TrimSpace(planName)))
	if !ok {
		return nil, dto.ErrInvalidInput
	}

	now := utils.TimeNow()
	err := s.unitOfWork.Run(ctx, func(opts ...utils.DBOption) error {
		if err := s.membershipRepo.CancelActive(ctx, userID, now, opts...); err != nil {
			return fmt.Errorf("failed to cancel active membership: %w", err)
		}
		membership := &model.Membership{
			UserID:    userID,
			Plan:      plan.Name,
			Status:    model.MembershipStatusActive,
			Price:     plan.Price,
			StartedAt: now,
		}
		if err := s.membershipRepo.Create(ctx, membership, opts...); err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		conversion := &model.Conversion{
			UserID: sql.NullInt64{Int64: int64(userID), Valid: true},
			Event:  dto.ConversionSubscription,
			Value:  plan.Price,
			Source: "web",
		}
		if err := s.conversionRepo.Create(ctx, conversion, opts...); err != nil {
			return fmt.Errorf("failed to record conversion: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to subscribe", logger.ErrorField(err), logger.IntField("user_id", int(userID)), logger.StringField("plan", plan.Name))
		return nil, err
	}

	s.log.InfoContext(ctx, "Membership subscribed", logger.IntField("user_id", int(userID)), logger.StringField("plan", plan.Name))
	return &dto.MembershipResponse{Plan: plan, Status: model.MembershipStatusActive}, nil
}

func (s *membershipService) TrackConversion(ctx context.Context, param dto.TrackConversionParam) error {
	event := strings.TrimSpace(param.Event)
	if event == "" {
		return dto.ErrInvalidInput
	}

	conversion := &model.Conversion{
		Event:  event,
		Value:  param.Value,
		Source: strings.TrimSpace(param.Source),
	}
	if param.UserID != nil {
		conversion.UserID = sql.NullInt64{Int64: int64(*param.UserID), Valid: true}
	}
	if len(param.Metadata) > 0 {
		raw, err := json.Marshal(param.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		conversion.Metadata = raw
	}

	if err := s.conversionRepo.Create(ctx, conversion); err != nil {
		s.log.ErrorContext(ctx, "Failed to track conversion", logger.ErrorField(err), logger.StringField("event", event))
		return fmt.Errorf("failed to track conversion: %w", err)
	}
	return nil
}

// ConversionMetrics summarizes the last 30 days of conversions.
func (s *membershipService) ConversionMetrics(ctx context.Context) (*dto.ConversionMetrics, error) {
	since := utils.TimeNow().Add(-metricsWindowDays * 24 * time.Hour)

	bySource, err := s.conversionRepo.GroupBy(ctx, "source", since)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to group conversions by source", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to group conversions: %w", err)
	}
	byEvent, err := s.conversionRepo.GroupBy(ctx, "event", since)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to group conversions by event", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to group conversions: %w", err)
	}

	metrics := &dto.ConversionMetrics{
		Days:         metricsWindowDays,
		TotalValue:   decimal.Zero,
		AverageValue: decimal.Zero,
		BySource:     bySource,
		ByEvent:      byEvent,
	}
	for _, row := range byEvent {
		metrics.Total += row.Count
		metrics.TotalValue = metrics.TotalValue.Add(row.Value)
	}
	if metrics.Total > 0 {
		metrics.AverageValue = metrics.TotalValue.Div(decimal.NewFromInt(metrics.Total)).Round(2)
	}
	return metrics, nil
}

// JoinWaitlist is idempotent on email and returns the existing entry on repeat.
func (s *membershipService) JoinWaitlist(ctx context.Context, req dto.JoinWaitlistRequest) (*model.WaitlistEntry, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, dto.ErrInvalidInput
	}

	existing, err := s.waitlistRepo.GetByEmail(ctx, email)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get waitlist entry", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	entry := &model.WaitlistEntry{
		Email:  email,
		Name:   strings.TrimSpace(req.Name),
		Notes:  strings.TrimSpace(req.Notes),
		Status: model.WaitlistStatusPending,
	}
	if err := s.waitlistRepo.Create(ctx, entry); err != nil {
		s.log.ErrorContext(ctx, "Failed to join waitlist", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to join waitlist: %w", err)
	}

	if err := s.TrackConversion(ctx, dto.TrackConversionParam{Event: dto.ConversionWaitlist, Source: "web"}); err != nil {
		s.log.WarnContext(ctx, "Failed to track waitlist conversion", logger.ErrorField(err), logger.StringField("email", entry.Email))
	}
	return entry, nil
}

func (s *membershipService) ListWaitlist(ctx context.Context, status string) ([]model.WaitlistEntry, error) {
	entries, err := s.waitlistRepo.List(ctx, status)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list waitlist", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list waitlist: %w", err)
	}
	return entries, nil
}

// ApproveWaitlist marks an entry approved and issues its invitation key. Approving twice keeps the first key.
func (s *membershipService) ApproveWaitlist(ctx context.Context, id uint) (*model.WaitlistEntry, error) {
	entry, err := s.waitlistRepo.GetByID(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get waitlist entry", logger.ErrorField(err), logger.IntField("id", int(id)))
		return nil, fmt.Errorf("failed to get waitlist entry: %w", err)
	}
	if entry == nil {
		return nil, dto.ErrNotFound
	}
	if entry.Status == model.WaitlistStatusApproved {
		return entry, nil
	}

	key, err := utils.RandomToken(16)
	if err != nil {
		return nil, err
	}
	entry.Status = model.WaitlistStatusApproved
	entry.InvitedAt = sql.NullTime{Time: utils.TimeNow(), Valid: true}
	entry.InvitationKey = sql.NullString{String: key, Valid: true}

	if err := s.waitlistRepo.Update(ctx, entry); err != nil {
		s.log.ErrorContext(ctx, "Failed to approve waitlist entry", logger.ErrorField(err), logger.IntField("id", int(id)))
		return nil, fmt.Errorf("failed to approve waitlist entry: %w", err)
	}
	return entry, nil
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/google/uuid"
)

type AlertService interface {
	Add(ctx context.Context, userID uint, req dto.CreateAlertRequest) (string, error)
	Remove(ctx context.Context, userID uint, id string) (bool, error)
	List(ctx context.Context, userID uint, symbol string) ([]model.Alert, error)
	Check(ctx context.Context, values map[string]float64, kinds ...model.AlertKind) ([]model.Alert, error)
	PendingSymbols(ctx context.Context) ([]string, error)
}

type alertService struct {
	cfg        *config.Config
	log        *logger.Logger
	alertRepo  repository.AlertRepository
	unitOfWork repository.UnitOfWork
}

func NewAlertService(cfg *config.Config, log *logger.Logger, alertRepo repository.AlertRepository, unitOfWork repository.UnitOfWork) AlertService {
	return &alertService{
		cfg:        cfg,
		log:        log,
		alertRepo:  alertRepo,
		unitOfWork: unitOfWork,
	}
}

func (s *alertService) Add(ctx context.Context, userID uint, req dto.CreateAlertRequest) (string, error) {
	symbol := utils.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return "", dto.ErrInvalidSymbol
	}

	alert := &model.Alert{
		ID:         uuid.NewString(),
		UserID:     userID,
		Symbol:     symbol,
		Kind:       model.AlertKind(req.Kind),
		Comparator: model.AlertComparator(req.Comparator),
		Threshold:  req.Threshold,
		CreatedAt:  utils.TimeNow(),
	}
	if email := strings.TrimSpace(req.NotifyEmail); email != "" {
		alert.NotifyEmail = sql.NullString{String: email, Valid: true}
	}

	if err := s.alertRepo.Create(ctx, alert); err != nil {
		s.log.ErrorContext(ctx, "Failed to create alert", logger.ErrorField(err), logger.StringField("symbol", symbol))
		return "", fmt.Errorf("failed to create alert: %w", err)
	}
	return alert.ID, nil
}

// Remove deletes the alert when it belongs to userID. It reports false when there
// was nothing to delete, so repeated calls are harmless.
func (s *alertService) Remove(ctx context.Context, userID uint, id string) (bool, error) {
	alerts, err := s.alertRepo.Get(ctx, model.GetAlertParam{IDs: []string{id}, UserID: &userID})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get alert", logger.ErrorField(err), logger.StringField("alert_id", id))
		return false, fmt.Errorf("failed to get alert: %w", err)
	}
	if len(alerts) == 0 {
		return false, nil
	}

	removed, err := s.alertRepo.Delete(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete alert", logger.ErrorField(err), logger.StringField("alert_id", id))
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}
	return removed, nil
}

func (s *alertService) List(ctx context.Context, userID uint, symbol string) ([]model.Alert, error) {
	param := model.GetAlertParam{UserID: &userID}
	if symbol = utils.NormalizeSymbol(symbol); symbol != "" {
		param.Symbol = &symbol
	}
	alerts, err := s.alertRepo.Get(ctx, param)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list alerts", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// Check evaluates every pending alert whose symbol has a value. Evaluated alerts get
// last_checked; those whose condition holds are latched as triggered and returned.
// Kinds narrows the evaluation to those metric kinds; none means every kind.
// Two keys naming the same symbol in different case are rejected.
func (s *alertService) Check(ctx context.Context, values map[string]float64, kinds ...model.AlertKind) ([]model.Alert, error) {
	if len(values) == 0 {
		return []model.Alert{}, nil
	}

	normalized := make(map[string]float64, len(values))
	symbols := make([]string, 0, len(values))
	for symbol, value := range values {
		symbol = utils.NormalizeSymbol(symbol)
		if symbol == "" {
			continue
		}
		if _, ok := normalized[symbol]; ok {
			return nil, fmt.Errorf("%w: symbol %s given more than once", dto.ErrInvalidInput, symbol)
		}
		symbols = append(symbols, symbol)
		normalized[symbol] = value
	}
	if len(symbols) == 0 {
		return []model.Alert{}, nil
	}

	now := utils.TimeNow()
	triggered := []model.Alert{}
	err := s.unitOfWork.Run(ctx, func(opts ...utils.DBOption) error {
		pending, err := s.alertRepo.Get(ctx, model.GetAlertParam{
			Symbols:   symbols,
			Kinds:     kinds,
			Triggered: utils.ToPointer(false),
		}, opts...)
		if err != nil {
			return fmt.Errorf("failed to get pending alerts: %w", err)
		}

		checked := make([]string, 0, len(pending))
		for _, alert := range pending {
			value := normalized[alert.Symbol]
			condition := dto.AlertCondition{Comparator: alert.Comparator, Threshold: alert.Threshold}
			if !condition.Matches(value) {
				checked = append(checked, alert.ID)
				continue
			}

			if err := s.alertRepo.MarkTriggered(ctx, alert.ID, now, value, opts...); err != nil {
				return fmt.Errorf("failed to mark alert %s triggered: %w", alert.ID, err)
			}
			alert.Triggered = true
			alert.TriggeredAt = sql.NullTime{Time: now, Valid: true}
			alert.TriggeredValue = sql.NullFloat64{Float64: value, Valid: true}
			alert.LastChecked = sql.NullTime{Time: now, Valid: true}
			triggered = append(triggered, alert)
		}

		if err := s.alertRepo.MarkChecked(ctx, checked, now, opts...); err != nil {
			return fmt.Errorf("failed to mark alerts checked: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to check alerts", logger.ErrorField(err), logger.IntField("symbol_count", len(symbols)))
		return nil, err
	}

	if len(triggered) > 0 {
		s.log.InfoContext(ctx, "Alerts triggered", logger.IntField("count", len(triggered)))
	}
	return triggered, nil
}

func (s *alertService) PendingSymbols(ctx context.Context) ([]string, error) {
	symbols, err := s.alertRepo.PendingSymbols(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get pending alert symbols", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get pending alert symbols: %w", err)
	}
	return symbols, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"finance-dashboard/config"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/cache"
	"finance-dashboard/pkg/common"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/mailer"
	"finance-dashboard/pkg/telegram"
	"finance-dashboard/pkg/utils"
)

// TelegramSender delivers a text message to one chat.
type TelegramSender interface {
	SendMessageUser(ctx context.Context, message string, chatID int64, opts ...interface{}) error
	Enabled() bool
}

type NotificationService interface {
	NotifyAlert(ctx context.Context, alert model.Alert) error
	SendEmail(ctx context.Context, to, subject, body string) error
}

type notificationService struct {
	cfg      *config.Config
	log      *logger.Logger
	cache    cache.Cache
	mailer   mailer.Mailer
	telegram TelegramSender
	userRepo repository.UserRepository
}

func NewNotificationService(
	cfg *config.Config,
	log *logger.Logger,
	inmemoryCache cache.Cache,
	mail mailer.Mailer,
	telegram TelegramSender,
	userRepo repository.UserRepository,
) NotificationService {
	return &notificationService{
		cfg:      cfg,
		log:      log,
		cache:    inmemoryCache,
		mailer:   mail,
		telegram: telegram,
		userRepo: userRepo,
	}
}

// NotifyAlert sends a triggered alert by email when it carries an address and by
// Telegram when its owner linked a chat. Each alert is delivered at most once per
// cache lifetime.
func (s *notificationService) NotifyAlert(ctx context.Context, alert model.Alert) error {
	key := fmt.Sprintf(common.KEY_ALERT_NOTIFIED, alert.ID)
	if _, found := s.cache.Get(key); found {
		return nil
	}

	triggeredAt := utils.TimeNow()
	if alert.TriggeredAt.Valid {
		triggeredAt = alert.TriggeredAt.Time
	}
	message := telegram.FormatAlertMessage(telegram.AlertMessage{
		Symbol:      alert.Symbol,
		Kind:        string(alert.Kind),
		Comparator:  string(alert.Comparator),
		Threshold:   alert.Threshold,
		Value:       alert.TriggeredValue.Float64,
		CreatedAt:   alert.CreatedAt,
		TriggeredAt: triggeredAt,
	})

	var errs []error
	delivered := false

	if alert.NotifyEmail.Valid && s.mailer.Enabled() {
		subject := fmt.Sprintf("Alerta de %s: %s", alert.Kind, alert.Symbol)
		if err := s.mailer.Send(ctx, alert.NotifyEmail.String, subject, message); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			delivered = true
		}
	}

	if s.telegram != nil && s.telegram.Enabled() {
		user, err := s.userRepo.Get(ctx, model.GetUserParam{ID: &alert.UserID})
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("telegram: failed to get user: %w", err))
		case user != nil && user.TelegramChatID.Valid:
			if err := s.telegram.SendMessageUser(ctx, message, user.TelegramChatID.Int64); err != nil {
				errs = append(errs, fmt.Errorf("telegram: %w", err))
			} else {
				delivered = true
			}
		}
	}

	if delivered {
		s.cache.Set(key, true, s.cfg.Cache.DefaultExpiration)
	}
	if err := errors.Join(errs...); err != nil {
		s.log.ErrorContext(ctx, "Failed to deliver alert notification",
			logger.ErrorField(err),
			logger.StringField("alert_id", alert.ID),
			logger.StringField("symbol", alert.Symbol))
		return err
	}
	return nil
}

func (s *notificationService) SendEmail(ctx context.Context, to, subject, body string) error {
	if !s.mailer.Enabled() {
		s.log.DebugContext(ctx, "Mailer disabled, email not sent", logger.StringField("subject", subject))
		return nil
	}
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		s.log.ErrorContext(ctx, "Failed to send email", logger.ErrorField(err), logger.StringField("subject", subject))
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/pkg/cache"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/mailer"
	"finance-dashboard/pkg/postgres"
	"finance-dashboard/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	db          *postgres.DB
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	mailer      mailer.Mailer
	telegram    *telegram.TelegramRateLimiter
	telegramBot *telebot.Bot
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log, &cfg.Telegram)
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return nil, err
	}

	dep := &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		db:        db,
		echo:      echo.New(),
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		mailer:    mailer.New(cfg.SMTP, log),
	}
	dep.echo.HideBanner = true

	if cfg.Telegram.BotToken == "" {
		log.Info("Telegram bot token not set, telegram notifications disabled")
		return dep, nil
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Telegram.BotToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", zap.Error(err))
		},
	})
	if err != nil {
		log.Error("Failed to create telegram bot", zap.Error(err))
		_ = db.Close()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	dep.telegramBot = bot
	dep.telegram = telegram.NewTelegramRateLimiter(&cfg.Telegram, log, bot)
	return dep, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	defer func() { _ = d.log.Sync() }()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

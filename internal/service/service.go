package service

import (
	"finance-dashboard/config"
	"finance-dashboard/internal/repository"
	"finance-dashboard/internal/strategy"
	"finance-dashboard/pkg/cache"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/mailer"
)

type Service struct {
	AuthService           AuthService
	PortfolioService      PortfolioService
	ValuationService      ValuationService
	AlertService          AlertService
	NotificationService   NotificationService
	MarketService         MarketService
	RiskService           RiskService
	RecommendationService RecommendationService
	ReportService         ReportService
	MembershipService     MembershipService
	SchedulerService      SchedulerService
	TaskExecutor          TaskExecutor
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	telegram TelegramSender,
	mail mailer.Mailer,
) (*Service, error) {
	riskService, err := NewRiskService(cfg, log, repo.UserRepo)
	if err != nil {
		return nil, err
	}

	notificationService := NewNotificationService(cfg, log, inmemoryCache, mail, telegram, repo.UserRepo)
	membershipService := NewMembershipService(cfg, log, repo.MembershipRepo, repo.ConversionRepo, repo.WaitlistRepo, repo.UnitOfWork)
	authService, err := NewAuthService(cfg, log, repo.UserRepo, notificationService, membershipService)
	if err != nil {
		return nil, err
	}
	portfolioService := NewPortfolioService(cfg, log, repo.PortfolioRepo, repo.YahooFinanceRepo, repo.UnitOfWork)
	valuationService := NewValuationService(cfg, log, repo.YahooFinanceRepo)
	alertService := NewAlertService(cfg, log, repo.AlertRepo, repo.UnitOfWork)
	marketService := NewMarketService(cfg, log, inmemoryCache, repo.YahooFinanceRepo, repo.NewsRepo, repo.SystemParamRepo)
	recommendationService := NewRecommendationService(cfg, log, repo.GeminiAIRepo, marketService, riskService)
	reportService := NewReportService(cfg, log, portfolioService, valuationService, marketService, recommendationService)

	strategies := strategy.Register(
		strategy.NewAlertCheckStrategy(cfg, log, alertService, repo.YahooFinanceRepo, notificationService, marketService),
		strategy.NewNewsRefreshStrategy(cfg, log, marketService),
		strategy.NewDataCleanUpStrategy(cfg, log, repo.JobRepo, repo.UserRepo, recommendationService),
	)
	taskExecutor := NewTaskExecutor(cfg, log, repo.JobRepo, strategies)
	schedulerService := NewSchedulerService(cfg, log, repo.JobRepo, taskExecutor)

	return &Service{
		AuthService:           authService,
		PortfolioService:      portfolioService,
		ValuationService:      valuationService,
		AlertService:          alertService,
		NotificationService:   notificationService,
		MarketService:         marketService,
		RiskService:           riskService,
		RecommendationService: recommendationService,
		ReportService:         reportService,
		MembershipService:     membershipService,
		SchedulerService:      schedulerService,
		TaskExecutor:          taskExecutor,
	}, nil
}

package repository

import (
	"finance-dashboard/config"
	"finance-dashboard/pkg/cache"
	"finance-dashboard/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	JobRepo          JobRepository
	UserRepo         UserRepository
	PortfolioRepo    PortfolioRepository
	AlertRepo        AlertRepository
	MembershipRepo   MembershipRepository
	ConversionRepo   ConversionRepository
	WaitlistRepo     WaitlistRepository
	SystemParamRepo  SystemParamRepository
	YahooFinanceRepo YahooFinanceRepository
	NewsRepo         NewsRepository
	GeminiAIRepo     AIRepository
	UnitOfWork       UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, inmemoryCache cache.Cache, log *logger.Logger) (*Repository, error) {
	geminiAIRepo, err := NewGeminiAIRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		JobRepo:          NewJobRepository(db),
		UserRepo:         NewUserRepository(db),
		PortfolioRepo:    NewPortfolioRepository(db),
		AlertRepo:        NewAlertRepository(db),
		MembershipRepo:   NewMembershipRepository(db),
		ConversionRepo:   NewConversionRepository(db),
		WaitlistRepo:     NewWaitlistRepository(db),
		SystemParamRepo:  NewSystemParamRepository(cfg, log, inmemoryCache, db),
		YahooFinanceRepo: NewYahooFinanceRepository(cfg, log),
		NewsRepo:         NewNewsRepository(cfg, log),
		GeminiAIRepo:     geminiAIRepo,
		UnitOfWork:       NewUnitOfWork(db),
	}, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/shopspring/decimal"
)

type PortfolioService interface {
	CreatePortfolio(ctx context.Context, userID uint, name string) (*model.Portfolio, error)
	AddPosition(ctx context.Context, userID uint, portfolioName, symbol string, shares decimal.Decimal) (*model.Portfolio, error)
	SavePortfolio(ctx context.Context, portfolio *model.Portfolio) error
	ListPortfolios(ctx context.Context, userID uint) ([]model.Portfolio, error)
	GetPortfolio(ctx context.Context, userID uint, name string) (*model.Portfolio, error)
	DeletePortfolio(ctx context.Context, userID uint, name string) error
}

type portfolioService struct {
	cfg              *config.Config
	log              *logger.Logger
	portfolioRepo    repository.PortfolioRepository
	yahooFinanceRepo repository.YahooFinanceRepository
	unitOfWork       repository.UnitOfWork
}

func NewPortfolioService(
	cfg *config.Config,
	log *logger.Logger,
	portfolioRepo repository.PortfolioRepository,
	yahooFinanceRepo repository.YahooFinanceRepository,
	unitOfWork repository.UnitOfWork,
) PortfolioService {
	return &portfolioService{
		cfg:              cfg,
		log:              log,
		portfolioRepo:    portfolioRepo,
		yahooFinanceRepo: yahooFinanceRepo,
		unitOfWork:       unitOfWork,
	}
}

func (s *portfolioService) CreatePortfolio(ctx context.Context, userID uint, name string) (*model.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", dto.ErrInvalidInput)
	}

	existing, err := s.portfolioRepo.Get(ctx, model.GetPortfolioParam{UserID: &userID, Name: &name})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get portfolio", logger.ErrorField(err), logger.StringField("name", name))
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	if existing != nil {
		return nil, dto.ErrDuplicatePortfolio
	}

	portfolio := &model.Portfolio{UserID: userID, Name: name}
	if err := s.portfolioRepo.Create(ctx, portfolio); err != nil {
		s.log.ErrorContext(ctx, "Failed to create portfolio", logger.ErrorField(err), logger.StringField("name", name))
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return portfolio, nil
}

// AddPosition adds shares of symbol to the named portfolio, creating the portfolio on
// first use. A top-up keeps the original cost basis; a new symbol is bought at the
// current price. Validation runs before anything is written.
func (s *portfolioService) AddPosition(ctx context.Context, userID uint, portfolioName, symbol string, shares decimal.Decimal) (*model.Portfolio, error) {
	portfolioName = strings.TrimSpace(portfolioName)
	symbol = utils.NormalizeSymbol(symbol)
	if portfolioName == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", dto.ErrInvalidInput)
	}
	if symbol == "" {
		return nil, dto.ErrInvalidSymbol
	}
	if !shares.IsPositive() {
		return nil, dto.ErrInvalidShares
	}

	quote, err := s.yahooFinanceRepo.GetQuote(ctx, symbol)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to resolve symbol", logger.StringField("symbol", symbol), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %s", dto.ErrInvalidSymbol, symbol)
	}

	portfolio, err := s.portfolioRepo.Get(ctx, model.GetPortfolioParam{UserID: &userID, Name: &portfolioName, WithPositions: true})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get portfolio", logger.ErrorField(err), logger.StringField("name", portfolioName))
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	if portfolio == nil {
		portfolio = &model.Portfolio{UserID: userID, Name: portfolioName}
	}

	if idx := portfolio.FindPosition(symbol); idx >= 0 {
		portfolio.Positions[idx].Shares = portfolio.Positions[idx].Shares.Add(shares)
	} else {
		portfolio.Positions = append(portfolio.Positions, model.Position{
			Symbol:    symbol,
			Shares:    shares,
			CostBasis: decimal.NewFromFloat(quote.Price),
			CreatedAt: utils.TimeNow(),
		})
	}

	if err := s.SavePortfolio(ctx, portfolio); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Position added",
		logger.IntField("user_id", int(userID)),
		logger.StringField("portfolio", portfolioName),
		logger.StringField("symbol", symbol),
		logger.StringField("shares", shares.String()))
	return portfolio, nil
}

// SavePortfolio writes the portfolio row and replaces its whole position set in one
// transaction.
func (s *portfolioService) SavePortfolio(ctx context.Context, portfolio *model.Portfolio) error {
	isNew := portfolio.ID == 0
	err := s.unitOfWork.Run(ctx, func(opts ...utils.DBOption) error {
		if isNew {
			if err := s.portfolioRepo.Create(ctx, portfolio, opts...); err != nil {
				return fmt.Errorf("failed to create portfolio: %w", err)
			}
		}
		return s.portfolioRepo.ReplacePositions(ctx, portfolio.ID, portfolio.Positions, opts...)
	})
	if err != nil {
		if isNew {
			// the insert was rolled back
			portfolio.ID = 0
		}
		s.log.ErrorContext(ctx, "Failed to save portfolio", logger.ErrorField(err), logger.StringField("name", portfolio.Name))
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}

func (s *portfolioService) ListPortfolios(ctx context.Context, userID uint) ([]model.Portfolio, error) {
	portfolios, err := s.portfolioRepo.ListByUser(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list portfolios", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	return portfolios, nil
}

func (s *portfolioService) GetPortfolio(ctx context.Context, userID uint, name string) (*model.Portfolio, error) {
	name = strings.TrimSpace(name)
	portfolio, err := s.portfolioRepo.Get(ctx, model.GetPortfolioParam{UserID: &userID, Name: &name, WithPositions: true})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get portfolio", logger.ErrorField(err), logger.StringField("name", name))
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	if portfolio == nil {
		return nil, dto.ErrNotFound
	}
	return portfolio, nil
}

func (s *portfolioService) DeletePortfolio(ctx context.Context, userID uint, name string) error {
	portfolio, err := s.GetPortfolio(ctx, userID, name)
	if err != nil {
		return err
	}

	err = s.unitOfWork.Run(ctx, func(opts ...utils.DBOption) error {
		return s.portfolioRepo.Delete(ctx, portfolio.ID, opts...)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete portfolio", logger.ErrorField(err), logger.StringField("name", name))
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return nil
}

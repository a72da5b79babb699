package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/utils"

	"gorm.io/gorm"
)

type PortfolioRepository interface {
	Get(ctx context.Context, param model.GetPortfolioParam, opts ...utils.DBOption) (*model.Portfolio, error)
	ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.Portfolio, error)
	Create(ctx context.Context, portfolio *model.Portfolio, opts ...utils.DBOption) error
	ReplacePositions(ctx context.Context, portfolioID uint, positions []model.Position, opts ...utils.DBOption) error
	Delete(ctx context.Context, portfolioID uint, opts ...utils.DBOption) error
}

type portfolioRepository struct {
	db *gorm.DB
}

func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) Get(ctx context.Context, param model.GetPortfolioParam, opts ...utils.DBOption) (*model.Portfolio, error) {
	var portfolio model.Portfolio

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if param.ID != nil {
		qFilter = append(qFilter, "id = ?")
		qFilterParam = append(qFilterParam, *param.ID)
	}
	if param.UserID != nil {
		qFilter = append(qFilter, "user_id = ?")
		qFilterParam = append(qFilterParam, *param.UserID)
	}
	if param.Name != nil {
		qFilter = append(qFilter, "name = ?")
		qFilterParam = append(qFilterParam, *param.Name)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if param.WithPositions {
		db = db.Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	}

	if err := db.Where(strings.Join(qFilter, " AND "), qFilterParam...).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &portfolio, nil
}

func (r *portfolioRepository) ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.Portfolio, error) {
	var portfolios []model.Portfolio
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&portfolios).Error
	if err != nil {
		return nil, err
	}
	return portfolios, nil
}

func (r *portfolioRepository) Create(ctx context.Context, portfolio *model.Portfolio, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Omit("Positions").Create(portfolio).Error
}

// ReplacePositions deletes every position of the portfolio and inserts the given set.
// Callers run it inside a unit of work so the swap is atomic.
func (r *portfolioRepository) ReplacePositions(ctx context.Context, portfolioID uint, positions []model.Position, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if err := db.Where("portfolio_id = ?", portfolioID).Delete(&model.Position{}).Error; err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	if len(positions) == 0 {
		return nil
	}

	rows := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, model.Position{
			PortfolioID: portfolioID,
			Symbol:      p.Symbol,
			Shares:      p.Shares,
			CostBasis:   p.CostBasis,
			CreatedAt:   p.CreatedAt,
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert positions: %w", err)
	}
	return nil
}

func (r *portfolioRepository) Delete(ctx context.Context, portfolioID uint, opts ...utils.DBOption) error {
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if err := db.Where("portfolio_id = ?", portfolioID).Delete(&model.Position{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Portfolio{}, portfolioID).Error
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Portfolio struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_portfolios_user_name" json:"user_id"`
	Name      string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_portfolios_user_name" json:"name"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Positions []Position `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"positions"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

// Position is one holding. CostBasis is the price per share at first acquisition.
type Position struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PortfolioID uint            `gorm:"not null;uniqueIndex:idx_positions_portfolio_symbol" json:"portfolio_id"`
	Symbol      string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_positions_portfolio_symbol" json:"symbol"`
	Shares      decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"shares"`
	CostBasis   decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"cost_basis"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Position) TableName() string {
	return "positions"
}

// FindPosition returns the index of symbol in the position list, or -1.
func (p *Portfolio) FindPosition(symbol string) int {
	for i, pos := range p.Positions {
		if pos.Symbol == symbol {
			return i
		}
	}
	return -1
}

type GetPortfolioParam struct {
	ID            *uint
	UserID        *uint
	Name          *string
	WithPositions bool
}

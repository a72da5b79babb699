package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatePortfolioRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AddPositionRequest struct {
	Symbol string  `json:"symbol" validate:"required,max=20"`
	Shares float64 `json:"shares" validate:"required,gt=0"`
}

// PositionSnapshot is the derived valuation of one position.
type PositionSnapshot struct {
	Symbol          string          `json:"symbol"`
	Shares          decimal.Decimal `json:"shares"`
	CostBasis       decimal.Decimal `json:"cost_basis"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	MarketValue     decimal.Decimal `json:"market_value"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	ReturnPct       decimal.Decimal `json:"return_pct"`
	ReturnUndefined bool            `json:"return_undefined,omitempty"`
	ChangePercent   float64         `json:"change_percent"`
	PERatio         float64         `json:"pe_ratio"`
}

// PortfolioValuation holds the snapshots of the positions that could be priced.
// A zero total with Skipped > 0 is not distinguished from an empty portfolio.
type PortfolioValuation struct {
	Snapshots  []PositionSnapshot `json:"snapshots"`
	TotalValue decimal.Decimal    `json:"total_value"`
	Valued     int                `json:"valued"`
	Skipped    int                `json:"skipped"`
	ValuedAt   time.Time          `json:"valued_at"`
}

type PortfolioSummary struct {
	TotalValue     decimal.Decimal   `json:"total_value"`
	TotalCost      decimal.Decimal   `json:"total_cost"`
	TotalGainLoss  decimal.Decimal   `json:"total_gain_loss"`
	TotalReturnPct decimal.Decimal   `json:"total_return_pct"`
	BestPerformer  *PositionSnapshot `json:"best_performer,omitempty"`
	WorstPerformer *PositionSnapshot `json:"worst_performer,omitempty"`
}

type PerformancePoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type PortfolioResponse struct {
	Name      string              `json:"name"`
	CreatedAt time.Time           `json:"created_at"`
	Positions []PositionResponse  `json:"positions"`
	Valuation *PortfolioValuation `json:"valuation,omitempty"`
}

type PositionResponse struct {
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

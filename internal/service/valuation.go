package service

import (
	"context"
	"sort"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/shopspring/decimal"
)

type ValuationService interface {
	Value(ctx context.Context, positions []model.Position) dto.PortfolioValuation
	PerformanceHistory(ctx context.Context, positions []model.Position, period string) ([]dto.PerformancePoint, error)
	Summary(valuation dto.PortfolioValuation) dto.PortfolioSummary
}

type valuationService struct {
	cfg              *config.Config
	log              *logger.Logger
	yahooFinanceRepo repository.YahooFinanceRepository
}

func NewValuationService(cfg *config.Config, log *logger.Logger, yahooFinanceRepo repository.YahooFinanceRepository) ValuationService {
	return &valuationService{
		cfg:              cfg,
		log:              log,
		yahooFinanceRepo: yahooFinanceRepo,
	}
}

var hundred = decimal.NewFromInt(100)

// Value prices every position with one quote lookup each, in order. Positions whose
// lookup fails are logged and left out of the result.
func (s *valuationService) Value(ctx context.Context, positions []model.Position) dto.PortfolioValuation {
	valuation := dto.PortfolioValuation{
		Snapshots:  make([]dto.PositionSnapshot, 0, len(positions)),
		TotalValue: decimal.Zero,
		ValuedAt:   utils.TimeNow(),
	}

	for _, pos := range positions {
		quote, err := s.yahooFinanceRepo.GetQuote(ctx, pos.Symbol)
		if err != nil {
			s.log.WarnContext(ctx, "Skipping position, quote lookup failed",
				logger.StringField("symbol", pos.Symbol),
				logger.ErrorField(err))
			valuation.Skipped++
			continue
		}

		snapshot := NewSnapshot(pos, decimal.NewFromFloat(quote.Price))
		snapshot.ChangePercent = quote.ChangePercent
		snapshot.PERatio = quote.PERatio

		valuation.Snapshots = append(valuation.Snapshots, snapshot)
		valuation.TotalValue = valuation.TotalValue.Add(snapshot.MarketValue)
		valuation.Valued++
	}
	return valuation
}

// NewSnapshot derives the valuation of one position at price. A zero cost yields a
// zero return flagged as undefined.
func NewSnapshot(pos model.Position, price decimal.Decimal) dto.PositionSnapshot {
	marketValue := price.Mul(pos.Shares)
	cost := pos.CostBasis.Mul(pos.Shares)
	gainLoss := marketValue.Sub(cost)

	snapshot := dto.PositionSnapshot{
		Symbol:       pos.Symbol,
		Shares:       pos.Shares,
		CostBasis:    pos.CostBasis,
		CurrentPrice: price,
		MarketValue:  marketValue,
		GainLoss:     gainLoss,
		ReturnPct:    decimal.Zero,
	}
	if cost.IsZero() {
		snapshot.ReturnUndefined = true
	} else {
		snapshot.ReturnPct = gainLoss.Div(cost).Mul(hundred)
	}
	return snapshot
}

// PerformanceHistory sums close*shares per trading day across the positions. Days on
// which a position has no close contribute nothing for that position.
func (s *valuationService) PerformanceHistory(ctx context.Context, positions []model.Position, period string) ([]dto.PerformancePoint, error) {
	if utils.PeriodToDays(period) == 0 {
		return nil, dto.ErrInvalidInput
	}

	totals := make(map[string]decimal.Decimal)
	dates := make(map[string]dto.PerformancePoint)
	for _, pos := range positions {
		points, err := s.yahooFinanceRepo.GetHistory(ctx, pos.Symbol, period)
		if err != nil {
			s.log.WarnContext(ctx, "Skipping position history",
				logger.StringField("symbol", pos.Symbol),
				logger.StringField("period", period),
				logger.ErrorField(err))
			continue
		}
		for _, p := range points {
			key := p.Date.Format("2006-01-02")
			totals[key] = totals[key].Add(decimal.NewFromFloat(p.Close).Mul(pos.Shares))
			if _, ok := dates[key]; !ok {
				dates[key] = dto.PerformancePoint{Date: p.Date}
			}
		}
	}

	history := make([]dto.PerformancePoint, 0, len(totals))
	for key, total := range totals {
		point := dates[key]
		point.Value = total
		history = append(history, point)
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })
	return history, nil
}

func (s *valuationService) Summary(valuation dto.PortfolioValuation) dto.PortfolioSummary {
	summary := dto.PortfolioSummary{
		TotalValue:     valuation.TotalValue,
		TotalCost:      decimal.Zero,
		TotalGainLoss:  decimal.Zero,
		TotalReturnPct: decimal.Zero,
	}
	for i := range valuation.Snapshots {
		snap := &valuation.Snapshots[i]
		summary.TotalCost = summary.TotalCost.Add(snap.CostBasis.Mul(snap.Shares))
		summary.TotalGainLoss = summary.TotalGainLoss.Add(snap.GainLoss)

		if summary.BestPerformer == nil || snap.ReturnPct.GreaterThan(summary.BestPerformer.ReturnPct) {
			summary.BestPerformer = snap
		}
		if summary.WorstPerformer == nil || snap.ReturnPct.LessThan(summary.WorstPerformer.ReturnPct) {
			summary.WorstPerformer = snap
		}
	}
	if valuation.TotalValue.IsPositive() {
		summary.TotalReturnPct = summary.TotalGainLoss.Div(valuation.TotalValue).Mul(hundred)
	}
	return summary
}

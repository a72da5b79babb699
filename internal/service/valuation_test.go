package service

import (
	"context"
	"testing"
	"time"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewSnapshot(t *testing.T) {
	tests := []struct {
		name          string
		pos           model.Position
		price         string
		wantValue     string
		wantGain      string
		wantReturn    string
		wantUndefined bool
	}{
		{
			name:       "gain",
			pos:        model.Position{Symbol: "AAPL", Shares: dec("10"), CostBasis: dec("150")},
			price:      "180",
			wantValue:  "1800",
			wantGain:   "300",
			wantReturn: "20",
		},
		{
			name:       "loss",
			pos:        model.Position{Symbol: "TSLA", Shares: dec("4"), CostBasis: dec("250")},
			price:      "200",
			wantValue:  "800",
			wantGain:   "-200",
			wantReturn: "-20",
		},
		{
			name:          "zero cost basis",
			pos:           model.Position{Symbol: "GIFT", Shares: dec("2"), CostBasis: decimal.Zero},
			price:         "50",
			wantValue:     "100",
			wantGain:      "100",
			wantReturn:    "0",
			wantUndefined: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := NewSnapshot(tt.pos, dec(tt.price))
			assert.True(t, dec(tt.wantValue).Equal(snap.MarketValue), snap.MarketValue.String())
			assert.True(t, dec(tt.wantGain).Equal(snap.GainLoss), snap.GainLoss.String())
			assert.True(t, dec(tt.wantReturn).Equal(snap.ReturnPct), snap.ReturnPct.String())
			assert.Equal(t, tt.wantUndefined, snap.ReturnUndefined)
		})
	}
}

func TestValuationService_Value(t *testing.T) {
	yahoo := &fakeYahoo{quotes: map[string]*dto.Quote{
		"AAPL": {Symbol: "AAPL", Price: 180, ChangePercent: 1.2, PERatio: 30},
		"MSFT": {Symbol: "MSFT", Price: 400, ChangePercent: -0.5, PERatio: 35},
	}}
	s := NewValuationService(newTestConfig(), logger.NewNop(), yahoo)

	valuation := s.Value(context.Background(), []model.Position{
		{Symbol: "AAPL", Shares: dec("10"), CostBasis: dec("150")},
		{Symbol: "GONE", Shares: dec("1"), CostBasis: dec("10")},
		{Symbol: "MSFT", Shares: dec("2"), CostBasis: dec("420")},
	})

	assert.Equal(t, 2, valuation.Valued)
	assert.Equal(t, 1, valuation.Skipped)
	require.Len(t, valuation.Snapshots, 2)
	assert.Equal(t, "AAPL", valuation.Snapshots[0].Symbol)
	assert.Equal(t, 1.2, valuation.Snapshots[0].ChangePercent)
	assert.Equal(t, 35.0, valuation.Snapshots[1].PERatio)
	assert.True(t, dec("2600").Equal(valuation.TotalValue), valuation.TotalValue.String())
}

func TestValuationService_ValueZeroTotals(t *testing.T) {
	s := NewValuationService(newTestConfig(), logger.NewNop(), &fakeYahoo{})

	tests := []struct {
		name        string
		positions   []model.Position
		wantSkipped int
	}{
		{name: "no positions", positions: nil, wantSkipped: 0},
		{
			name: "every lookup fails",
			positions: []model.Position{
				{Symbol: "GONE", Shares: dec("3"), CostBasis: dec("10")},
				{Symbol: "LOST", Shares: dec("1"), CostBasis: dec("99")},
			},
			wantSkipped: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valuation := s.Value(context.Background(), tt.positions)
			assert.True(t, valuation.TotalValue.IsZero(), valuation.TotalValue.String())
			assert.Empty(t, valuation.Snapshots)
			assert.Equal(t, 0, valuation.Valued)
			assert.Equal(t, tt.wantSkipped, valuation.Skipped)
		})
	}
}

func TestValuationService_Summary(t *testing.T) {
	s := NewValuationService(newTestConfig(), logger.NewNop(), &fakeYahoo{})

	valuation := dto.PortfolioValuation{
		Snapshots: []dto.PositionSnapshot{
			NewSnapshot(model.Position{Symbol: "AAPL", Shares: dec("10"), CostBasis: dec("150")}, dec("180")),
			NewSnapshot(model.Position{Symbol: "MSFT", Shares: dec("2"), CostBasis: dec("420")}, dec("400")),
		},
		TotalValue: dec("2600"),
	}
	summary := s.Summary(valuation)

	assert.True(t, dec("2340").Equal(summary.TotalCost), summary.TotalCost.String())
	assert.True(t, dec("260").Equal(summary.TotalGainLoss), summary.TotalGainLoss.String())
	assert.True(t, dec("10").Equal(summary.TotalReturnPct), summary.TotalReturnPct.String())
	require.NotNil(t, summary.BestPerformer)
	require.NotNil(t, summary.WorstPerformer)
	assert.Equal(t, "AAPL", summary.BestPerformer.Symbol)
	assert.Equal(t, "MSFT", summary.WorstPerformer.Symbol)

	empty := s.Summary(dto.PortfolioValuation{TotalValue: decimal.Zero})
	assert.Nil(t, empty.BestPerformer)
	assert.True(t, empty.TotalReturnPct.IsZero())
}

func TestValuationService_PerformanceHistory(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	yahoo := &fakeYahoo{history: map[string][]dto.PricePoint{
		"AAPL": {{Date: day2, Close: 11}, {Date: day1, Close: 10}},
		"MSFT": {{Date: day1, Close: 100}},
	}}
	s := NewValuationService(newTestConfig(), logger.NewNop(), yahoo)
	positions := []model.Position{
		{Symbol: "AAPL", Shares: dec("2")},
		{Symbol: "MSFT", Shares: dec("1")},
		{Symbol: "NOHIST", Shares: dec("5")},
	}

	history, err := s.PerformanceHistory(context.Background(), positions, "1m")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, day1, history[0].Date)
	assert.True(t, dec("120").Equal(history[0].Value), history[0].Value.String())
	assert.True(t, dec("22").Equal(history[1].Value), history[1].Value.String())

	_, err = s.PerformanceHistory(context.Background(), positions, "10y")
	assert.ErrorIs(t, err, dto.ErrInvalidInput)
}
